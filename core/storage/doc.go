// Package storage provides an S3/MinIO-backed object storage client.
//
// The bucket holds the bundled faction catalog (factions.json), per-faction
// index documents (static/<id>/index.json), and unit art assets for both
// static and locally uploaded factions. The Client interface narrows the
// minio SDK to the operations the application needs, which keeps handlers
// and loaders mockable (see the mocks subpackage).
package storage
