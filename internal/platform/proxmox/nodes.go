package proxmox

import (
	"cmp"
	"context"
	"slices"
)

// ListNodes returns all cluster nodes sorted by name.
func (c *RealClient) ListNodes(ctx context.Context) ([]Node, error) {
	var nodes []Node
	if err := c.get(ctx, "/nodes", nil, &nodes); err != nil {
		return nil, err
	}
	slices.SortFunc(nodes, func(a, b Node) int { return cmp.Compare(a.Name, b.Name) })
	return nodes, nil
}
