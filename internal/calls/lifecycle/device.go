package lifecycle

import "crm-platform/internal/calls"

// DeviceEvent names the softphone SDK callbacks we translate. The adapter is
// a pure translator: no retries, no persistence. SDK failures surface as a
// failed candidate carrying the error text on the message side channel.
type DeviceEvent string

const (
	DeviceEventConnecting DeviceEvent = "connecting"
	DeviceEventRinging    DeviceEvent = "ringing"
	DeviceEventAccept     DeviceEvent = "accept"
	DeviceEventDisconnect DeviceEvent = "disconnect"
	DeviceEventError      DeviceEvent = "error"
	DeviceEventCancel     DeviceEvent = "cancel"
)

// DeviceSource feeds softphone SDK events into a coordinator.
type DeviceSource struct {
	co *Coordinator

	sawError bool
}

func NewDeviceSource(co *Coordinator) *DeviceSource { return &DeviceSource{co: co} }

// Handle translates one SDK event. A disconnect that follows an error keeps
// the failed outcome; the coordinator's terminal absorption would discard the
// completed candidate anyway, so this is belt only, not logic the merge
// depends on.
func (d *DeviceSource) Handle(ev DeviceEvent, message string) {
	status, ok := d.translate(ev)
	if !ok {
		return
	}
	d.co.Submit(Candidate{Status: status, Source: SourceDevice, Message: message})
}

func (d *DeviceSource) translate(ev DeviceEvent) (calls.CallStatus, bool) {
	switch ev {
	case DeviceEventConnecting:
		return calls.CallStatusConnecting, true
	case DeviceEventRinging:
		return calls.CallStatusRinging, true
	case DeviceEventAccept:
		return calls.CallStatusInProgress, true
	case DeviceEventDisconnect:
		if d.sawError {
			return calls.CallStatusUnknown, false
		}
		return calls.CallStatusCompleted, true
	case DeviceEventError:
		d.sawError = true
		return calls.CallStatusFailed, true
	case DeviceEventCancel:
		return calls.CallStatusCanceled, true
	default:
		return calls.CallStatusUnknown, false
	}
}
