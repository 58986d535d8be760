// package http contains the request and response types, which are meant
// to be exported. the package name is meant to be same with the top
// level package name so that IDEs and code editors could pick them up
//
// unlike net/http, headers are kept as an ordered list: the order fields
// are added in is the order they are written, and duplicate response
// fields are never merged.
package http
