package wcl

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// maxReportPages bounds the pagination loop against a broken upstream that
// never clears hasMorePages.
const maxReportPages = 200

// GuildReports fetches every report the guild owns inside [start, end),
// following hasMorePages until the upstream reports the last page. Any page
// failure aborts the whole fetch; attendance needs complete data or none.
func (c *Client) GuildReports(ctx context.Context, guild, server, region string, start, end time.Time) ([]Report, error) {
	path := fmt.Sprintf("/reports/guild/%s/%s/%s",
		url.PathEscape(guild), url.PathEscape(server), url.PathEscape(region))

	var all []Report
	for page := 1; page <= maxReportPages; page++ {
		q := url.Values{}
		q.Set("start", strconv.FormatInt(start.UnixMilli(), 10))
		q.Set("end", strconv.FormatInt(end.UnixMilli(), 10))
		q.Set("page", strconv.Itoa(page))

		var pr reportPage
		if err := c.getJSON(ctx, path, q, &pr); err != nil {
			return nil, fmt.Errorf("guild reports page %d: %w", page, err)
		}
		all = append(all, pr.Reports...)
		if !pr.HasMorePages {
			return all, nil
		}
	}
	return nil, fmt.Errorf("%w: pagination did not terminate after %d pages", ErrUpstreamQuery, maxReportPages)
}

// Fights fetches all encounters recorded in a report.
func (c *Client) Fights(ctx context.Context, code string) ([]Fight, error) {
	var fr fightsResp
	if err := c.getJSON(ctx, "/reports/fights/"+url.PathEscape(code), nil, &fr); err != nil {
		return nil, fmt.Errorf("fights for %s: %w", code, err)
	}
	return fr.Fights, nil
}
