package handlers

const (
	// Upper bound for an uploaded song file
	maxImportBytes = 1 << 20

	importFormField = "file"

	mimeJSON = "application/json; charset=utf-8"
	mimeHTML = "text/html; charset=utf-8"
)
