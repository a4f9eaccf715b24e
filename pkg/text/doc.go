// Package text implements the bounded text accumulators that node procedures
// write dialogue into: a fixed-capacity Buffer with its Markup (tags and
// attributes over the accumulated text), and the Option entries of a choice.
//
// Nothing here grows after construction. Writing past a capacity panics with a
// *domain.ContractViolation wrapping domain.ErrBufferOverflow.
package text
