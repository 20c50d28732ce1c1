// Package sanitizer provides input normalization for clinic data.
//
// All normalization functions are idempotent: applying them twice yields the
// same result as applying them once. Invalid input never produces an error;
// each function documents its fallback.
//
// Normalization includes:
//   - Booking phones: the fixed Brazilian mobile rules required by the booking
//     gateway, with a placeholder for malformed numbers
//   - Contact phones: E.164 via libphonenumber (region BR) when parseable
//   - URLs: enforce HTTPS, lowercase host, drop tracking parameters
//   - Strings: collapse whitespace, trim, search-term escaping
//   - Numbers: clamp lead scores into range
package sanitizer
