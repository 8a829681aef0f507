package signer

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

// Activity is a recorded operation in a scope, kept as raw JSON plus the few
// fields the control surface filters on.
type Activity struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Status string          `json:"status"`
	Raw    json.RawMessage `json:"-"`
}

func (a *Activity) UnmarshalJSON(data []byte) error {
	type alias Activity
	var tmp alias
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*a = Activity(tmp)
	a.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// ListActivities lists a scope's activities, optionally filtered by type.
func (c *Client) ListActivities(ctx context.Context, organizationID string, activityTypes []string) ([]Activity, error) {
	params := map[string]interface{}{
		"organizationId": organizationID,
	}
	if len(activityTypes) > 0 {
		params["filterByType"] = activityTypes
	}

	var out struct {
		Activities []Activity `json:"activities"`
	}
	if err := c.query(ctx, "/public/v1/query/list_activities", params, &out); err != nil {
		return nil, errors.Wrap(err, "listing activities")
	}
	return out.Activities, nil
}
