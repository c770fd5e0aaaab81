// Package priceimport turns uploaded supplier price lists into reviewable
// rows: text extraction from PDF and XLSX files, line parsing, product
// matching and the background worker pool that drives parse jobs.
package priceimport
