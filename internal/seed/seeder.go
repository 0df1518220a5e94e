// Package seed populates a development database with realistic demo data:
// users with links and pages, plus a few weeks of click and view events so
// every analytics report has something to show.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/andreajoa/linktree/backend/internal/logger"
	"github.com/andreajoa/linktree/backend/internal/models"
	"github.com/andreajoa/linktree/backend/internal/useragent"
)

// Seeder handles database seeding operations.
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance.
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

var seedUserAgents = []string{
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
	"Mozilla/5.0 (iPad; CPU OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1",
}

var seedReferrers = []string{
	"", "", // direct traffic is the most common
	"https://twitter.com/",
	"https://instagram.com/",
	"https://www.google.com/",
	"https://t.co/abc123",
}

var seedCountries = []string{"US", "US", "US", "DE", "GB", "BR", "JP", "FR", ""}

// SeedDev seeds the development database with demo users and a trailing
// month of traffic.
func (s *Seeder) SeedDev(userCount int) error {
	logger.Log.Info("Seeding demo users", zap.Int("count", userCount))

	for i := 0; i < userCount; i++ {
		user, links, page, blocks, err := s.seedUser(i)
		if err != nil {
			return fmt.Errorf("failed to seed user %d: %w", i, err)
		}
		if err := s.seedTraffic(user, links, page, blocks); err != nil {
			return fmt.Errorf("failed to seed traffic for %s: %w", user.Username, err)
		}
	}

	logger.Log.Info("Seeding complete")
	return nil
}

// seedUser creates one user with 3-6 links and a page with matching blocks.
func (s *Seeder) seedUser(n int) (*models.User, []models.Link, *models.Page, []models.Block, error) {
	username := strings.ToLower(fmt.Sprintf("%s%d", gofakeit.Username(), n))
	user := &models.User{
		Email:    fmt.Sprintf("%s@%s", username, gofakeit.DomainName()),
		Username: username,
		Name:     gofakeit.Name(),
		Bio:      gofakeit.Sentence(8),
		Theme:    gofakeit.RandomString([]string{"default", "dark", "neon", "pastel"}),
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, nil, nil, nil, err
	}

	linkCount := 3 + rand.Intn(4)
	links := make([]models.Link, 0, linkCount)
	for i := 0; i < linkCount; i++ {
		link := models.Link{
			UserID:   user.ID,
			URL:      gofakeit.URL(),
			Title:    gofakeit.BookTitle(),
			Order:    i,
			IsActive: rand.Intn(10) > 0, // roughly one in ten hidden
		}
		if err := s.db.Create(&link).Error; err != nil {
			return nil, nil, nil, nil, err
		}
		links = append(links, link)
	}

	page := &models.Page{
		UserID: user.ID,
		Slug:   username,
		Title:  user.Name,
	}
	if err := s.db.Create(page).Error; err != nil {
		return nil, nil, nil, nil, err
	}

	blocks := make([]models.Block, 0, linkCount)
	for i := 0; i < linkCount; i++ {
		block := models.Block{
			PageID:   page.ID,
			Type:     "link",
			Position: i,
		}
		if err := s.db.Create(&block).Error; err != nil {
			return nil, nil, nil, nil, err
		}
		blocks = append(blocks, block)
	}

	return user, links, page, blocks, nil
}

// seedTraffic writes a month of raw events for one user and fixes up the
// denormalized counters to match, the same invariant the tracking path
// maintains.
func (s *Seeder) seedTraffic(user *models.User, links []models.Link, page *models.Page, blocks []models.Block) error {
	sessionCount := 10 + rand.Intn(40)
	for i := 0; i < sessionCount; i++ {
		sessionID := gofakeit.UUID()
		ip := gofakeit.IPv4Address()
		rawUA := seedUserAgents[rand.Intn(len(seedUserAgents))]
		ua := useragent.Classify(rawUA)
		country := seedCountries[rand.Intn(len(seedCountries))]
		referrer := seedReferrers[rand.Intn(len(seedReferrers))]
		ts := time.Now().UTC().
			AddDate(0, 0, -rand.Intn(30)).
			Add(-time.Duration(rand.Intn(86400)) * time.Second)

		view := models.PageView{
			PageID:    page.ID,
			Timestamp: ts,
			IP:        ip,
			UserAgent: rawUA,
			Referrer:  referrer,
			Country:   country,
			Device:    ua.Device(),
			Browser:   ua.Browser(),
			OS:        ua.OS(),
			SessionID: sessionID,
			Duration:  rand.Intn(300),
		}
		if err := s.db.Create(&view).Error; err != nil {
			return err
		}

		// Most sessions click something; a few click a lot.
		clicks := rand.Intn(4)
		for j := 0; j < clicks; j++ {
			link := links[rand.Intn(len(links))]
			click := models.LinkClick{
				LinkID:    link.ID,
				UserID:    user.ID,
				Timestamp: ts.Add(time.Duration(j+1) * time.Minute),
				IP:        ip,
				UserAgent: rawUA,
				Referrer:  referrer,
				Country:   country,
				Device:    ua.Device(),
				Browser:   ua.Browser(),
				OS:        ua.OS(),
				SessionID: sessionID,
			}
			if err := s.db.Create(&click).Error; err != nil {
				return err
			}

			block := blocks[rand.Intn(len(blocks))]
			blockClick := models.BlockClick{
				PageID:    page.ID,
				BlockID:   block.ID,
				Timestamp: click.Timestamp,
				IP:        ip,
				SessionID: sessionID,
			}
			if err := s.db.Create(&blockClick).Error; err != nil {
				return err
			}
		}
	}

	// Align the denormalized counters with the events just written.
	err := s.db.Exec(
		"UPDATE links SET clicks = (SELECT COUNT(*) FROM link_clicks WHERE link_clicks.link_id = links.id) WHERE user_id = ?",
		user.ID,
	).Error
	if err != nil {
		return err
	}
	return s.db.Exec(
		"UPDATE pages SET views = (SELECT COUNT(*) FROM page_views WHERE page_views.page_id = pages.id) WHERE id = ?",
		page.ID,
	).Error
}

// Clear removes all seeded data. Development only.
func (s *Seeder) Clear() error {
	for _, table := range []string{"block_clicks", "page_views", "link_clicks", "blocks", "pages", "links", "users"} {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}
