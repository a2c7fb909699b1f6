// Package shelf is the composition root for the shelf library.
//
// Shelf keeps typed records in plain text files, one canonically encoded
// JSON object per line, and coordinates concurrent access across processes
// with a sibling lock file and change detection on the file's metadata.
//
// Features:
//
//   - **Typed records**: schemas are static descriptor tables with closed
//     enums, tuples, sets, maps, nested records and ordered unions.
//   - **Canonical encoding**: default-valued fields are omitted and the
//     output is byte-deterministic, so equal records encode identically.
//   - **Keyed stores**: Keyed enforces one record per key, MultiKeyed
//     groups distinct records under a shared key.
//   - **Cross-process safety**: every operation locks, reconciles with the
//     file when it changed externally, and rewrites it atomically.
//   - **Schema files**: the schemafile package loads schemas from YAML for
//     the shelfdb command line tool.
//
// Usage:
//
//	schema := record.MustSchema("host",
//		record.NewField("ip", record.String()),
//		record.NewField("port", record.Int(), record.WithDefault(int64(0))),
//	)
//
//	hosts, err := shelf.NewKeyed[string]("hosts.db", schema, "ip",
//		shelf.WithLockTimeout(5*time.Second),
//	)
package shelf
