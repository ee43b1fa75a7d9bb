package verification

import "github.com/chantierdirect/backend/internal/models"

// Status is the derived marketplace-participation state of a user
type Status string

const (
	StatusVerified Status = "VERIFIED"
	StatusPending  Status = "PENDING"
	StatusBlocked  Status = "BLOCKED"
)

// EffectiveStatus is the status of one required document type. It extends
// the stored document status with Missing for types nothing was uploaded for.
type EffectiveStatus string

const (
	EffectiveApproved EffectiveStatus = EffectiveStatus(models.DocumentStatusApproved)
	EffectivePending  EffectiveStatus = EffectiveStatus(models.DocumentStatusPending)
	EffectiveRejected EffectiveStatus = EffectiveStatus(models.DocumentStatusRejected)
	EffectiveMissing  EffectiveStatus = "MISSING"
)

// Access is what a user may do on gated features
type Access string

const (
	AccessFull           Access = "full"
	AccessReadOnly       Access = "read_only"
	AccessUploadRequired Access = "upload_required"
)

// AccessFor maps a verification status to the access granted on gated features
func AccessFor(status Status) Access {
	switch status {
	case StatusVerified:
		return AccessFull
	case StatusPending:
		return AccessReadOnly
	default:
		return AccessUploadRequired
	}
}
