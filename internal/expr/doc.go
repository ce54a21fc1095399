// Package expr evaluates arithmetic expressions assembled from recognized
// symbol labels, such as "12÷(3+1)" or "2π".
//
// Expressions are parsed with a recursive-descent parser; nothing is ever
// executed as code. Failures are returned as errors, and EvaluateString turns
// them into the "Error: <reason>" strings reported alongside segmentation
// results.
package expr
