/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

import (
	"errors"
	"net/http"
)

// ErrorKind is the closed set of failures a request can end in.
type ErrorKind int

const (
	ErrMissingCredential ErrorKind = iota
	ErrInvalidCredential
	ErrBadRequest
	ErrNotFound
	ErrRateLimited
	ErrExecutionFailure
	ErrUnavailable
	ErrMethodNotAllowed
)

var errorKinds = []ErrorKind{
	ErrMissingCredential,
	ErrInvalidCredential,
	ErrBadRequest,
	ErrNotFound,
	ErrRateLimited,
	ErrExecutionFailure,
	ErrUnavailable,
	ErrMethodNotAllowed,
}

var _ BaseEnum = ErrBadRequest

// ErrorKinds lists every ErrorKind.
func ErrorKinds() []ErrorKind {
	return append([]ErrorKind(nil), errorKinds...)
}

func (k ErrorKind) IsValid() bool {
	return k >= ErrMissingCredential && k <= ErrMethodNotAllowed
}

func (k ErrorKind) Number() int {
	if !k.IsValid() {
		return IllegalValue
	}
	return int(k)
}

func (k ErrorKind) String() string {
	return k.Name()
}

func (k ErrorKind) Name() string {
	switch k {
	case ErrMissingCredential:
		return "MissingCredential"
	case ErrInvalidCredential:
		return "InvalidCredential"
	case ErrBadRequest:
		return "BadRequest"
	case ErrNotFound:
		return "NotFound"
	case ErrRateLimited:
		return "RateLimited"
	case ErrExecutionFailure:
		return "ExecutionFailure"
	case ErrUnavailable:
		return "Unavailable"
	case ErrMethodNotAllowed:
		return "MethodNotAllowed"
	default:
		return IllegalName
	}
}

func (k ErrorKind) Desc() string {
	switch k {
	case ErrMissingCredential:
		return "no API key was supplied"
	case ErrInvalidCredential:
		return "the API key is not valid for this route"
	case ErrBadRequest:
		return "the request is missing a required value"
	case ErrNotFound:
		return "no route matches the request"
	case ErrRateLimited:
		return "too many requests for this client"
	case ErrExecutionFailure:
		return "the database rejected or failed the statement"
	case ErrUnavailable:
		return "the database cannot be reached"
	case ErrMethodNotAllowed:
		return "the route does not accept this method"
	default:
		return IllegalDesc
	}
}

// StatusCode maps the kind to its HTTP status.
func (k ErrorKind) StatusCode() int {
	switch k {
	case ErrMissingCredential:
		return http.StatusUnauthorized
	case ErrInvalidCredential:
		return http.StatusForbidden
	case ErrBadRequest:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrRateLimited:
		return http.StatusTooManyRequests
	case ErrUnavailable:
		return http.StatusServiceUnavailable
	case ErrMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Error is a failure tagged with its kind. Message is what the caller sees.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError returns an Error of kind with the given message.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError tags err with kind, keeping err's message verbatim.
func WrapError(kind ErrorKind, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: err.Error(), Err: err}
}

// AsError returns the *Error inside err, or classifies an untagged error
// as an ExecutionFailure carrying its message.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return WrapError(ErrExecutionFailure, err)
}
