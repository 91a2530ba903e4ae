// Package wrapper provides ready-made pipeline decorators for repositories.
//
// Decorators cover cross-cutting concerns such as logging, panic recovery,
// timeouts, retries, tracing and read caching. They are registered on a
// factory with repofactory.WithDecorators and apply to every method of every
// repository the factory builds. Registration order is stage order: the
// first registered decorator becomes the outermost stage.
package wrapper
