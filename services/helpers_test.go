package services

import "bytes"

// bytesReader wraps generated workbook bytes for excelize.OpenReader and importer.ReadTable.
func bytesReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}
