// Package mocks contains testify mocks of the model interfaces and the
// services consumed by the HTTP layer.
package mocks
