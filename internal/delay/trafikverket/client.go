// Package trafikverket is a client for the Trafikverket open traffic API.
// Queries are posted as XML documents and answered in JSON. The client
// converts wire records into domain types and hides the envelope handling;
// transport failures surface as errors that abort the caller's computation.
package trafikverket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/secunit404/railpulse/internal/delay"
	"github.com/secunit404/railpulse/internal/provider/resilience"
	"github.com/secunit404/railpulse/internal/station"
)

const (
	// ProviderName identifies this data provider.
	ProviderName = "trafikverket"

	// DefaultBaseURL is the production API endpoint.
	DefaultBaseURL = "https://api.trafikinfo.trafikverket.se/v2/data.json"
)

// Schema versions per object type, pinned to the versions the parsers expect.
const (
	announcementSchema = "1.9"
	stationSchema      = "1.4"
	reasonCodeSchema   = "1.0"
)

// announcementIncludes lists the TrainAnnouncement fields requested from the
// API; everything else is excluded to keep payloads small.
var announcementIncludes = []string{
	"AdvertisedTrainIdent",
	"OperationalTrainNumber",
	"ActivityType",
	"AdvertisedTimeAtLocation",
	"TimeAtLocation",
	"EstimatedTimeAtLocation",
	"LocationSignature",
	"Canceled",
	"Deviation",
	"FromLocation",
	"ToLocation",
	"ProductInformation",
	"OtherInformation",
}

// AnnouncementQuery bounds an announcement fetch to a set of stations and an
// advertised-time window.
type AnnouncementQuery struct {
	// LocationSignatures restricts results to these stations. One signature
	// queries a single station; two query either endpoint of a route.
	LocationSignatures []string

	// From and To bound the advertised time, inclusive.
	From time.Time
	To   time.Time
}

// ClientConfig holds configuration for the Trafikverket client.
type ClientConfig struct {
	// APIKey is the Trafikverket authentication key (required).
	APIKey string

	// BaseURL overrides the API endpoint (tests point it at a fake server).
	BaseURL string

	// HTTPClient is the HTTP client to use. If nil, a resilient client with
	// defaults is created.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches train announcements, stations and reason codes.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Trafikverket client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetAnnouncements fetches advertised train announcements for the query
// window. Records with unparseable advertised times are dropped.
func (c *Client) GetAnnouncements(ctx context.Context, query AnnouncementQuery) ([]delay.Announcement, error) {
	filter := announcementFilter(query)
	xml := c.buildQuery("TrainAnnouncement", announcementSchema, filter, announcementIncludes)

	results, err := c.post(ctx, "TrainAnnouncement", xml)
	if err != nil {
		return nil, err
	}

	var announcements []delay.Announcement
	dropped := 0
	for _, result := range results {
		for i := range result.TrainAnnouncements {
			ann, ok := toAnnouncement(&result.TrainAnnouncements[i])
			if !ok {
				dropped++
				continue
			}
			announcements = append(announcements, ann)
		}
	}

	if dropped > 0 {
		c.logger.Warn().
			Int("dropped", dropped).
			Msg("announcements with unparseable advertised times dropped")
	}

	return announcements, nil
}

// GetStations fetches all advertised stations.
func (c *Client) GetStations(ctx context.Context) ([]station.Station, error) {
	xml := c.buildQuery("TrainStation", stationSchema, `<EQ name="Advertised" value="true" />`, nil)

	results, err := c.post(ctx, "TrainStation", xml)
	if err != nil {
		return nil, err
	}

	var stations []station.Station
	for _, result := range results {
		for _, ws := range result.TrainStations {
			stations = append(stations, station.Station{
				Signature:      ws.LocationSignature,
				AdvertisedName: ws.AdvertisedLocationName,
				ShortName:      ws.AdvertisedShortLocationName,
			})
		}
	}
	return stations, nil
}

// GetReasonCodes fetches the reason-code catalog.
func (c *Client) GetReasonCodes(ctx context.Context) ([]delay.ReasonCode, error) {
	xml := c.buildQuery("ReasonCode", reasonCodeSchema, "", nil)

	results, err := c.post(ctx, "ReasonCode", xml)
	if err != nil {
		return nil, err
	}

	var codes []delay.ReasonCode
	for _, result := range results {
		for _, wc := range result.ReasonCodes {
			codes = append(codes, delay.ReasonCode{
				Code:              wc.Code,
				Level1Description: wc.Level1Description,
				Level2Description: wc.Level2Description,
				Level3Description: wc.Level3Description,
			})
		}
	}
	return codes, nil
}

// post executes one XML query and aggregates all RESULT entries.
func (c *Client) post(ctx context.Context, objectType, xml string) ([]apiResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(xml))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing %s request: %w", objectType, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s query: unexpected status code: %d", objectType, resp.StatusCode)
	}

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", objectType, err)
	}

	results := envelope.Response.Results
	if len(results) == 0 {
		c.logger.Warn().Str("object_type", objectType).Msg("empty result set from API")
		return nil, nil
	}

	for _, result := range results {
		if result.Info != nil && strings.EqualFold(result.Info.LastResult, "false") {
			c.logger.Warn().
				Str("object_type", objectType).
				Msg("API reports more data available, consider narrowing the query window")
		}
	}

	return results, nil
}

// buildQuery assembles the XML request document.
func (c *Client) buildQuery(objectType, schemaVersion, filter string, includes []string) string {
	var b strings.Builder
	b.WriteString("<REQUEST>\n")
	fmt.Fprintf(&b, "  <LOGIN authenticationkey=%q/>\n", c.apiKey)
	fmt.Fprintf(&b, "  <QUERY objecttype=%q schemaversion=%q>\n", objectType, schemaVersion)
	fmt.Fprintf(&b, "    <FILTER>%s</FILTER>\n", filter)
	for _, include := range includes {
		fmt.Fprintf(&b, "    <INCLUDE>%s</INCLUDE>\n", include)
	}
	b.WriteString("  </QUERY>\n</REQUEST>")
	return b.String()
}

// announcementFilter renders the filter element for an announcement query.
func announcementFilter(query AnnouncementQuery) string {
	var location string
	switch len(query.LocationSignatures) {
	case 0:
		location = ""
	case 1:
		location = fmt.Sprintf(`<EQ name="LocationSignature" value=%q />`, query.LocationSignatures[0])
	default:
		var parts []string
		for _, sig := range query.LocationSignatures {
			parts = append(parts, fmt.Sprintf(`<EQ name="LocationSignature" value=%q />`, sig))
		}
		location = "<OR>" + strings.Join(parts, "") + "</OR>"
	}

	return fmt.Sprintf(
		`<AND>%s<GTE name="AdvertisedTimeAtLocation" value=%q /><LTE name="AdvertisedTimeAtLocation" value=%q /><EQ name="Advertised" value="true" /></AND>`,
		location,
		query.From.Format(time.RFC3339),
		query.To.Format(time.RFC3339),
	)
}
