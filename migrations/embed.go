package migrations

import "embed"

// Files embeds the schema migrations. Up scripts apply in lexical order.
//
//go:embed *.sql
var Files embed.FS
