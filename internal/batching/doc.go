// Package batching groups near-duplicate lookup requests so that each group
// needs at most one external resolution.
//
// Grouping is greedy in input order: an entry joins the first existing group
// of the same kind whose representative is similar to it, otherwise it
// founds a new group and becomes its representative. Years that are present
// on both sides and differ always keep entries apart. The result depends
// only on the input order.
package batching
