// Package convert turns an OpenAPI document into a Postman collection.
//
// The work is split the same way a collection is shaped: Generator renders
// example values from schemas, BuildURL templates request URLs, BuildBody
// and BuildResponses render request and response examples, BuildItem puts
// them together for one operation, and Converter groups items into tag
// folders and wraps them in the collection envelope.
//
// Everything here is pure computation over an in-memory document. Reading
// and writing files belongs to the callers.
//
//	doc, _, err := openapi.Load("api.yaml")
//	if err != nil {
//	    return err
//	}
//	res, err := convert.New(convert.WithBaseURL("https://staging.example.com")).Convert(doc)
//	if err != nil {
//	    return err
//	}
//	_ = postman.WriteFile("collection.json", res.Collection, postman.FormatJSON, 2)
package convert
