// Package entity infers the semantic category of table columns by regex
// matching.
//
// A definition pairs a named pattern with the entity it implies (IP
// address, account, host, file, URL and so on) and a priority from 0
// (strongest) to 2 (weakest). The scanner grades every definition against
// every column of a sampled table, producing two ratios per pair: the
// match ratio over non-blank values and the total ratio over all sampled
// values. Interpretation assigns each column the definition with the
// highest match ratio, breaking ties by priority; format-only definitions
// such as GUID are recorded but never win an assignment.
//
// Definitions live in a JSON store next to the binary so analysts can add
// patterns without a rebuild.
package entity
