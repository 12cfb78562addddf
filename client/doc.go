// Package client is the HTTP engine behind the boundary: a value-oriented
// facade over net/http shaped after builder style clients.
//
// Builders are immutable. Every configuration method returns a new builder
// and leaves the receiver untouched, so a handle table can swap one value for
// the next without copying state back and forth:
//
//	b := client.NewClientBuilder().Timeout(5 * time.Second)
//	b, err := b.UserAgent("crabget/1.0")
//	c, err := b.Build()
//
//	rb, err := c.Get("https://example.com")
//	resp, err := rb.Header("Accept", "application/json")...Send()
//	body, err := resp.Bytes()
//
// Failures from the engine are returned as *Error, which reports an
// errors.Category so that errors.Classify can map it to a boundary Kind.
// Argument validation failures are returned as *errors.Error directly.
//
// A Response body can be materialized once. Text, Bytes, CopyTo and a
// started Read are mutually exclusive; the loser gets a body_consumed error.
package client
