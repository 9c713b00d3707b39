// Package inventory builds an Ansible inventory from the VMs of a Proxmox
// cluster. Every running VM with a guest agent IPv4 address becomes a host
// under all.hosts, and every VM tag becomes a child group of all.
package inventory
