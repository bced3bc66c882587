package app

import (
	"log"
	"mime"
)

// BOQ downloads go through http.ServeContent, which picks the Content-Type
// from the extension. Minimal containers ship without /etc/mime.types.
func init() {
	ensureMimeType(".xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ensureMimeType(".xls", "application/vnd.ms-excel")
	ensureMimeType(".pdf", "application/pdf")
}

func ensureMimeType(ext, typ string) {
	if mime.TypeByExtension(ext) != "" {
		return
	}
	if err := mime.AddExtensionType(ext, typ); err != nil {
		log.Printf("app: register MIME type for %s: %v", ext, err)
	}
}
