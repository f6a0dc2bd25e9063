// Package govinfo provides federal statutes and regulations (U.S. Code and
// CFR) from the GovInfo search API. Requests carry an api.data.gov key and
// are paced proactively to stay under the hourly quota.
package govinfo
