// Package readiness polls a freshly started service until it is actually
// usable: unit active, TCP port accepting connections and, optionally, the
// backing process present. The poll is bounded by a maximum wait and yields
// a TimeoutError carrying the last observed state.
package readiness
