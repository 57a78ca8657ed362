package openapi

// CheckRequired verifies the minimal structure needed for conversion:
// non-empty openapi, info and paths, reported in that order.
func CheckRequired(doc *Document) error {
	switch {
	case doc == nil || doc.OpenAPI == "":
		return &MissingFieldError{Field: "openapi"}
	case doc.Info == nil:
		return &MissingFieldError{Field: "info"}
	case doc.Paths.Len() == 0:
		return &MissingFieldError{Field: "paths"}
	}
	return nil
}

// CheckVersion returns a VersionMismatchError when the document does not
// declare ExpectedVersion. The mismatch is not fatal.
func CheckVersion(doc *Document) error {
	if doc == nil || doc.OpenAPI == ExpectedVersion {
		return nil
	}
	return &VersionMismatchError{Found: doc.OpenAPI, Expected: ExpectedVersion}
}
