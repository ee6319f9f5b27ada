// Package query turns list options into a backend-neutral Spec made of
// typed predicates, a sort and a page window. The memory backend evaluates
// a Spec directly; the SQL backends translate it.
package query
