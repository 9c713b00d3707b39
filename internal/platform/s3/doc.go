// Package s3 provides a small client for S3-compatible object storage.
//
// It backs the remote plan and state store: objects are read, written and
// deleted whole, and missing keys are reported as [ErrObjectNotFound].
// Endpoint and credentials are optional so that the default AWS
// credential chain and any S3-compatible service (MinIO, Ceph RGW) work.
package s3
