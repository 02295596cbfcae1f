package errors

import (
	stderrors "errors"
	"fmt"
)

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stderrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// NotFoundError is returned both when an order does not exist and when it
// belongs to another user. Callers must not be able to tell the two apart.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	var nf *NotFoundError
	if stderrors.As(err, &nf) {
		return nf, true
	}
	return nil, false
}

type UnauthenticatedError struct {
	Message string
}

func (e *UnauthenticatedError) Error() string {
	return e.Message
}

func NewUnauthenticatedError(message string) *UnauthenticatedError {
	return &UnauthenticatedError{Message: message}
}

func IsUnauthenticatedError(err error) (*UnauthenticatedError, bool) {
	var ue *UnauthenticatedError
	if stderrors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

type EmptyCartError struct {
	UserID int64
}

func (e *EmptyCartError) Error() string {
	return fmt.Sprintf("no active cart with items for user %d", e.UserID)
}

func NewEmptyCartError(userID int64) *EmptyCartError {
	return &EmptyCartError{UserID: userID}
}

func IsEmptyCartError(err error) (*EmptyCartError, bool) {
	var ec *EmptyCartError
	if stderrors.As(err, &ec) {
		return ec, true
	}
	return nil, false
}

type InvalidCancellationError struct {
	CurrentStatus string
}

func (e *InvalidCancellationError) Error() string {
	return fmt.Sprintf("order can only be cancelled while PENDING_PAYMENT or IN_PREPARATION, current status: %s", e.CurrentStatus)
}

func NewInvalidCancellationError(currentStatus string) *InvalidCancellationError {
	return &InvalidCancellationError{CurrentStatus: currentStatus}
}

func IsInvalidCancellationError(err error) (*InvalidCancellationError, bool) {
	var ic *InvalidCancellationError
	if stderrors.As(err, &ic) {
		return ic, true
	}
	return nil, false
}

type IllegalTransitionError struct {
	CurrentStatus string
	TargetStatus  string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal status transition %s -> %s", e.CurrentStatus, e.TargetStatus)
}

func NewIllegalTransitionError(currentStatus, targetStatus string) *IllegalTransitionError {
	return &IllegalTransitionError{
		CurrentStatus: currentStatus,
		TargetStatus:  targetStatus,
	}
}

func IsIllegalTransitionError(err error) (*IllegalTransitionError, bool) {
	var it *IllegalTransitionError
	if stderrors.As(err, &it) {
		return it, true
	}
	return nil, false
}

// DownstreamUnavailableError is what a breaker fallback hands back when a
// dependency is degraded or its circuit is open.
type DownstreamUnavailableError struct {
	Service string
	Cause   error
}

func (e *DownstreamUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s unavailable: %v", e.Service, e.Cause)
	}
	return fmt.Sprintf("%s unavailable", e.Service)
}

func (e *DownstreamUnavailableError) Unwrap() error {
	return e.Cause
}

func NewDownstreamUnavailableError(service string, cause error) *DownstreamUnavailableError {
	return &DownstreamUnavailableError{
		Service: service,
		Cause:   cause,
	}
}

func IsDownstreamUnavailableError(err error) (*DownstreamUnavailableError, bool) {
	var du *DownstreamUnavailableError
	if stderrors.As(err, &du) {
		return du, true
	}
	return nil, false
}

// UnavailableError covers transport failures: refused connections, DNS,
// timeouts and cancelled contexts.
type UnavailableError struct {
	URL   string
	Cause error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("calling %s: %v", e.URL, e.Cause)
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

func NewUnavailableError(url string, cause error) *UnavailableError {
	return &UnavailableError{
		URL:   url,
		Cause: cause,
	}
}

func IsUnavailableError(err error) (*UnavailableError, bool) {
	var ue *UnavailableError
	if stderrors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

type RemoteRejectedError struct {
	URL     string
	Status  int
	Message string
}

func (e *RemoteRejectedError) Error() string {
	return fmt.Sprintf("%s rejected request with status %d: %s", e.URL, e.Status, e.Message)
}

func NewRemoteRejectedError(url string, status int, message string) *RemoteRejectedError {
	return &RemoteRejectedError{
		URL:     url,
		Status:  status,
		Message: message,
	}
}

func IsRemoteRejectedError(err error) (*RemoteRejectedError, bool) {
	var rr *RemoteRejectedError
	if stderrors.As(err, &rr) {
		return rr, true
	}
	return nil, false
}

type RemoteFaultError struct {
	URL     string
	Status  int
	Message string
}

func (e *RemoteFaultError) Error() string {
	return fmt.Sprintf("%s failed with status %d: %s", e.URL, e.Status, e.Message)
}

func NewRemoteFaultError(url string, status int, message string) *RemoteFaultError {
	return &RemoteFaultError{
		URL:     url,
		Status:  status,
		Message: message,
	}
}

func IsRemoteFaultError(err error) (*RemoteFaultError, bool) {
	var rf *RemoteFaultError
	if stderrors.As(err, &rf) {
		return rf, true
	}
	return nil, false
}

type DeadlockError struct {
	Message string
}

func (e *DeadlockError) Error() string {
	return e.Message
}

func NewDeadlockError(message string) *DeadlockError {
	return &DeadlockError{Message: message}
}

func IsDeadlockError(err error) (*DeadlockError, bool) {
	var de *DeadlockError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}
