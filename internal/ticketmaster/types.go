package ticketmaster

import "time"

// Event is one upcoming concert, flattened from the Discovery API response.
type Event struct {
	ID       string
	Name     string
	StartsAt time.Time
	Venue    string
	City     string
	Price    *PriceRange
}

// PriceRange is the advertised ticket price span.
type PriceRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

// searchResponse mirrors the Discovery API envelope.
type searchResponse struct {
	Embedded struct {
		Events []eventPayload `json:"events"`
	} `json:"_embedded"`
	Page struct {
		TotalElements int `json:"totalElements"`
		TotalPages    int `json:"totalPages"`
	} `json:"page"`
}

type eventPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Dates struct {
		Start struct {
			DateTime  string `json:"dateTime"`
			LocalDate string `json:"localDate"`
		} `json:"start"`
	} `json:"dates"`
	Embedded struct {
		Venues []struct {
			Name string `json:"name"`
			City struct {
				Name string `json:"name"`
			} `json:"city"`
		} `json:"venues"`
	} `json:"_embedded"`
	PriceRanges []PriceRange `json:"priceRanges"`
}

// event flattens the payload into an Event.
func (p eventPayload) event() Event {
	e := Event{
		ID:       p.ID,
		Name:     p.Name,
		StartsAt: parseStart(p.Dates.Start.DateTime, p.Dates.Start.LocalDate),
	}
	if len(p.Embedded.Venues) > 0 {
		e.Venue = p.Embedded.Venues[0].Name
		e.City = p.Embedded.Venues[0].City.Name
	}
	if len(p.PriceRanges) > 0 {
		price := p.PriceRanges[0]
		e.Price = &price
	}
	return e
}

// parseStart prefers the full timestamp and falls back to the local date.
// An unparseable start yields the zero time, which sorts first.
func parseStart(dateTime, localDate string) time.Time {
	if t, err := time.Parse(time.RFC3339, dateTime); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", localDate); err == nil {
		return t
	}
	return time.Time{}
}
