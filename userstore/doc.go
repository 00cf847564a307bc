// Package userstore provides goGate.UserStore implementations.
//
// [Memory] is the only one. It loses every user on restart and suits tests,
// examples, and single-process demos.
package userstore
