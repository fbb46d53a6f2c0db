// Package ratelimit implements client-side throttling for the LLM service.
//
// The limiter tracks three caps at once: requests per minute and tokens per
// minute over 60-second sliding windows, and requests per day against a
// counter that resets at local midnight. AwaitCapacity blocks until all
// three caps admit the next call, reserving the estimated token cost up
// front. Reserved samples keep their estimates; RecordUsage accumulates the
// provider-reported counts alongside so drift between local and service-side
// accounting stays visible in the usage snapshot.
package ratelimit
