// Package domain defines the network access-provisioning boundary. Calls
// are fire-and-forget from the billing engine's point of view: a failed
// provisioning call is logged but never affects invoice correctness.
package domain

import (
	"context"
	"errors"

	plandomain "github.com/wifinitylabs/wifinity/internal/plan/domain"
	subscriberdomain "github.com/wifinitylabs/wifinity/internal/subscriber/domain"
)

var ErrProvisioningFailed = errors.New("access_provisioning_failed")

type Provisioner interface {
	Enable(ctx context.Context, sub *subscriberdomain.Subscriber, plan *plandomain.Plan) error
	Disable(ctx context.Context, sub *subscriberdomain.Subscriber, plan *plandomain.Plan) error
}
