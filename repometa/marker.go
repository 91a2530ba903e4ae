// Package repometa resolves repository definitions: structs whose exported
// func fields declare repository methods and whose embedded marker carries
// the domain and identifier types.
package repometa

import "reflect"

// Of carries the domain and identifier types of a repository definition.
// Embed it in a definition struct, directly or through a base contract
// such as crud.CrudOps.
type Of[T any, ID comparable] struct{}

// DomainType returns the domain entity type T.
func (Of[T, ID]) DomainType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// IDType returns the identifier type ID.
func (Of[T, ID]) IDType() reflect.Type {
	return reflect.TypeOf((*ID)(nil)).Elem()
}

// TypeCarrier is implemented by Of and, through field promotion, by every
// struct that embeds it at any depth.
type TypeCarrier interface {
	DomainType() reflect.Type
	IDType() reflect.Type
}

var typeCarrierType = reflect.TypeOf((*TypeCarrier)(nil)).Elem()
