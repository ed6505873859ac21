package storage

import (
	"strings"
	"time"
)

type SessionTurnMatch struct {
	SessionID   string
	SessionName string
	TurnIndex   int
	Role        string
	Content     string
	Preview     string
	Timestamp   time.Time
	Score       int
}

type SearchIndex struct {
	storage *SessionStorage
}

func NewSearchIndex(storage *SessionStorage) *SearchIndex {
	return &SearchIndex{storage: storage}
}

func (si *SearchIndex) SearchAllSessions(query string) ([]SessionTurnMatch, error) {
	if query == "" {
		return []SessionTurnMatch{}, nil
	}

	sessionList, err := si.storage.List()
	if err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(query)
	var matches []SessionTurnMatch

	for _, sessionMeta := range sessionList {
		session, err := si.storage.Load(sessionMeta.ID)
		if err != nil {
			continue
		}

		for i, t := range session.Turns {
			if strings.Contains(strings.ToLower(t.Content), queryLower) {
				preview := t.Content
				if len(preview) > 100 {
					preview = preview[:100] + "..."
				}

				matches = append(matches, SessionTurnMatch{
					SessionID:   session.ID,
					SessionName: session.Name,
					TurnIndex:   i,
					Role:        t.Role,
					Content:     t.Content,
					Preview:     preview,
					Timestamp:   t.CreatedAt,
					Score:       0,
				})
			}
		}
	}

	return matches, nil
}
