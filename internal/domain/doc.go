// Package domain holds the core business types of the outreach platform:
// tenants, leads, analyses, offers, suppression entries, and the
// aggregates derived from them.
//
// Everything here is a plain value type. No database handles, no HTTP
// types, no imports from other internal packages — JSON/DB tags and pure
// derivation methods only. Anything with a side effect belongs in a
// service or repository package.
package domain
