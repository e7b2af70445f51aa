// Package routeros provisions subscriber connectivity on a MikroTik router
// through its REST API. PPPoE subscribers get a ppp secret, hotspot
// subscribers a hotspot user; static IP leases are toggled by comment.
package routeros

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	accessdomain "github.com/wifinitylabs/wifinity/internal/access/domain"
	"github.com/wifinitylabs/wifinity/internal/config"
	plandomain "github.com/wifinitylabs/wifinity/internal/plan/domain"
	subscriberdomain "github.com/wifinitylabs/wifinity/internal/subscriber/domain"
)

type Provisioner struct {
	baseURL  string
	username string
	password string
	client   *http.Client
	log      *zap.Logger
}

func New(cfg config.RouterOSConfig, log *zap.Logger) *Provisioner {
	return &Provisioner{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log.Named("access.routeros"),
	}
}

func (p *Provisioner) Enable(ctx context.Context, sub *subscriberdomain.Subscriber, plan *plandomain.Plan) error {
	switch plan.Connection {
	case plandomain.ConnectionHotspot:
		return p.call(ctx, http.MethodPut, "/rest/ip/hotspot/user", map[string]any{
			"name":     sub.Phone,
			"server":   "hotspot1",
			"profile":  "default",
			"disabled": "no",
		})
	case plandomain.ConnectionStaticIP:
		return p.call(ctx, http.MethodPost, "/rest/ip/dhcp-server/lease/set", map[string]any{
			"comment":  leaseComment(sub),
			"disabled": "no",
		})
	default: // pppoe
		payload := map[string]any{
			"name":     sub.Phone,
			"service":  "pppoe",
			"profile":  "default",
			"disabled": "no",
		}
		if plan.DownloadMbps != nil && plan.UploadMbps != nil {
			payload["rate-limit"] = fmt.Sprintf("%.0fM/%.0fM", *plan.UploadMbps, *plan.DownloadMbps)
		}
		return p.call(ctx, http.MethodPut, "/rest/ppp/secret", payload)
	}
}

func (p *Provisioner) Disable(ctx context.Context, sub *subscriberdomain.Subscriber, plan *plandomain.Plan) error {
	switch plan.Connection {
	case plandomain.ConnectionHotspot:
		return p.call(ctx, http.MethodPatch, "/rest/ip/hotspot/user/"+sub.Phone, map[string]any{
			"disabled": "yes",
		})
	case plandomain.ConnectionStaticIP:
		return p.call(ctx, http.MethodPost, "/rest/ip/dhcp-server/lease/set", map[string]any{
			"comment":  leaseComment(sub),
			"disabled": "yes",
		})
	default:
		return p.call(ctx, http.MethodPatch, "/rest/ppp/secret/"+sub.Phone, map[string]any{
			"disabled": "yes",
		})
	}
}

func (p *Provisioner) call(ctx context.Context, method, path string, payload map[string]any) error {
	if p.baseURL == "" {
		return accessdomain.ErrProvisioningFailed
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.SetBasicAuth(p.username, p.password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Warn("routeros request failed", zap.String("path", path), zap.Error(err))
		return accessdomain.ErrProvisioningFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		p.log.Warn("routeros request rejected",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return accessdomain.ErrProvisioningFailed
	}
	return nil
}

func leaseComment(sub *subscriberdomain.Subscriber) string {
	return "wifinity:" + sub.ID.String()
}
