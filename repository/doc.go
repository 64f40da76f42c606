// Package repository provides the row accessor contract and its Bun
// implementation: full and selective writes, key and key-batch lookups,
// record templates, Example criteria and paging-scope aware selects.
package repository
