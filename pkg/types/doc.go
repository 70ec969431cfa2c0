// Package types defines the record model, scalar values, the Host interface,
// configuration, and standard error types shared by the assetcsv packages.
package types
