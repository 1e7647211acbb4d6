package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/salesjourney/backend/internal/amocrm"
	"github.com/salesjourney/backend/internal/config"
	"github.com/salesjourney/backend/internal/models"
	"github.com/salesjourney/backend/internal/repositories"
)

var (
	ErrNotConnected  = errors.New("amocrm is not connected")
	ErrStateExpired  = errors.New("oauth state expired")
	ErrUserNotMapped = errors.New("user is not mapped to a crm user")
)

// Tokens within this window of expiry get refreshed before use.
const tokenRefreshWindow = 60 * time.Second

// oauthStateTTL bounds how long a generated auth link stays valid.
const oauthStateTTL = 15 * time.Minute

// Personal syncs reach back this far before local midnight to survive
// timezone skew between the CRM account and the server.
const syncDayStartOffset = 10800 // seconds

type AmoCRMService struct {
	cfg       config.AmoCRM
	amoRepo   *repositories.AmoCRMRepository
	userRepo  *repositories.UserRepository
	statsRepo *repositories.StatsRepository
	gamRepo   *repositories.GamificationRepository
	achRepo   *repositories.AchievementRepository
	cache     *repositories.RedisRepository

	// newClient is swappable for tests.
	newClient func(baseDomain, accessToken string) *amocrm.Client
}

func NewAmoCRMService(cfg config.AmoCRM, amoRepo *repositories.AmoCRMRepository, userRepo *repositories.UserRepository, statsRepo *repositories.StatsRepository, gamRepo *repositories.GamificationRepository, achRepo *repositories.AchievementRepository, cache *repositories.RedisRepository) *AmoCRMService {
	return &AmoCRMService{
		cfg:       cfg,
		amoRepo:   amoRepo,
		userRepo:  userRepo,
		statsRepo: statsRepo,
		gamRepo:   gamRepo,
		achRepo:   achRepo,
		cache:     cache,
		newClient: amocrm.NewClient,
	}
}

// Connect stores the company's integration credentials and returns the
// authorization URL. The state carries the company id signed with the
// backend secret so the shared callback can route the code.
func (s *AmoCRMService) Connect(ctx context.Context, companyID uuid.UUID, clientID, clientSecret, baseDomain string) (string, error) {
	conn, err := s.amoRepo.UpsertCredentials(ctx, companyID, clientID, clientSecret, baseDomain)
	if err != nil {
		return "", err
	}

	state, err := amocrm.EncodeState(s.cfg.StateSecret, amocrm.StatePayload{
		CompanyID: companyID,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		return "", err
	}

	oauthCfg := s.cfg.OAuthConfig(conn.ClientID, conn.ClientSecret, conn.BaseDomain)
	return oauthCfg.AuthCodeURL(state, oauth2.SetAuthURLParam("mode", "post_message")), nil
}

// HandleCallback exchanges the authorization code for tokens. The referer
// query parameter carries the tenant's actual account domain, which can
// differ from what the owner typed in.
func (s *AmoCRMService) HandleCallback(ctx context.Context, code, state, referer string) (uuid.UUID, error) {
	payload, err := amocrm.DecodeState(s.cfg.StateSecret, state)
	if err != nil {
		return uuid.Nil, err
	}
	if time.Since(time.Unix(payload.Timestamp, 0)) > oauthStateTTL {
		return uuid.Nil, ErrStateExpired
	}

	conn, err := s.amoRepo.GetConnection(ctx, payload.CompanyID)
	if err != nil {
		return uuid.Nil, err
	}
	if conn == nil {
		return uuid.Nil, ErrNotConnected
	}

	domain := conn.BaseDomain
	if referer != "" {
		domain = referer
	}

	oauthCfg := s.cfg.OAuthConfig(conn.ClientID, conn.ClientSecret, domain)
	token, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return uuid.Nil, fmt.Errorf("token exchange failed: %w", err)
	}

	err = s.amoRepo.SaveTokens(ctx, payload.CompanyID, token.AccessToken, token.RefreshToken, token.Expiry.Unix(), domain)
	if err != nil {
		return uuid.Nil, err
	}
	return payload.CompanyID, nil
}

// ConnectionStatus is the integration card on the settings page.
type ConnectionStatus struct {
	Connected  bool   `json:"connected"`
	BaseDomain string `json:"base_domain,omitempty"`
	LastSyncAt int64  `json:"last_sync_at,omitempty"`
}

func (s *AmoCRMService) Status(ctx context.Context, companyID uuid.UUID) (*ConnectionStatus, error) {
	conn, err := s.amoRepo.GetConnection(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if conn == nil || conn.AccessToken == "" {
		return &ConnectionStatus{Connected: false}, nil
	}
	return &ConnectionStatus{
		Connected:  true,
		BaseDomain: conn.BaseDomain,
		LastSyncAt: conn.LastSyncAt,
	}, nil
}

func (s *AmoCRMService) Unlink(ctx context.Context, companyID uuid.UUID) error {
	if s.cache != nil {
		s.cache.InvalidateCRMUsers(ctx, companyID.String())
	}
	return s.amoRepo.DeleteConnection(ctx, companyID)
}

// client returns an API client with a fresh access token, refreshing via
// the OAuth endpoint when the stored one is about to expire. A refresh
// rejected by AmoCRM means the grant is gone, so the connection is dropped.
func (s *AmoCRMService) client(ctx context.Context, companyID uuid.UUID) (*amocrm.Client, error) {
	conn, err := s.amoRepo.GetConnection(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if conn == nil || conn.AccessToken == "" {
		return nil, ErrNotConnected
	}

	if time.Now().Add(tokenRefreshWindow).Unix() >= conn.ExpiresAt {
		oauthCfg := s.cfg.OAuthConfig(conn.ClientID, conn.ClientSecret, conn.BaseDomain)
		source := oauthCfg.TokenSource(ctx, &oauth2.Token{
			RefreshToken: conn.RefreshToken,
		})
		token, err := source.Token()
		if err != nil {
			var retrieveErr *oauth2.RetrieveError
			if errors.As(err, &retrieveErr) && (retrieveErr.Response.StatusCode == 400 || retrieveErr.Response.StatusCode == 401) {
				log.Printf("amocrm: refresh rejected for company %s, dropping connection", companyID)
				s.amoRepo.DeleteConnection(ctx, companyID)
				return nil, ErrNotConnected
			}
			return nil, fmt.Errorf("token refresh failed: %w", err)
		}
		err = s.amoRepo.SaveTokens(ctx, companyID, token.AccessToken, token.RefreshToken, token.Expiry.Unix(), "")
		if err != nil {
			return nil, err
		}
		conn.AccessToken = token.AccessToken
	}

	return s.newClient(conn.BaseDomain, conn.AccessToken), nil
}

// Users lists the CRM account's users, cached briefly in Redis because the
// mapping screen refetches on every visit.
func (s *AmoCRMService) Users(ctx context.Context, companyID uuid.UUID) ([]amocrm.User, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetCRMUsers(ctx, companyID.String()); err == nil && cached != nil {
			return cached, nil
		}
	}

	client, err := s.client(ctx, companyID)
	if err != nil {
		return nil, err
	}
	usersMap, err := client.FetchUsers(ctx)
	if err != nil {
		return nil, err
	}

	users := make([]amocrm.User, 0, len(usersMap))
	for _, u := range usersMap {
		users = append(users, u)
	}
	if s.cache != nil {
		if err := s.cache.StoreCRMUsers(ctx, companyID.String(), users); err != nil {
			log.Printf("amocrm: cache users: %v", err)
		}
	}
	return users, nil
}

// UserMapView pairs a platform user with their CRM counterpart, if set.
type UserMapView struct {
	UserID       uuid.UUID `json:"user_id"`
	Username     string    `json:"username"`
	AmoCRMUserID int64     `json:"amocrm_user_id,omitempty"`
}

func (s *AmoCRMService) ListMappings(ctx context.Context, companyID uuid.UUID) ([]UserMapView, error) {
	users, err := s.userRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	maps, err := s.amoRepo.ListUserMaps(ctx, companyID)
	if err != nil {
		return nil, err
	}

	byUser := make(map[uuid.UUID]int64, len(maps))
	for _, m := range maps {
		byUser[m.PlatformUserID] = m.AmoCRMUserID
	}

	views := make([]UserMapView, 0, len(users))
	for _, u := range users {
		views = append(views, UserMapView{
			UserID:       u.ID,
			Username:     u.DisplayName(),
			AmoCRMUserID: byUser[u.ID],
		})
	}
	return views, nil
}

func (s *AmoCRMService) SetMapping(ctx context.Context, companyID, platformUserID uuid.UUID, amoUserID int64) error {
	user, err := s.userRepo.FindByID(ctx, platformUserID)
	if err != nil {
		return err
	}
	if user == nil || user.CompanyID == nil || *user.CompanyID != companyID {
		return errors.New("user not found in company")
	}
	return s.amoRepo.UpsertUserMap(ctx, &models.AmoCRMUserMap{
		CompanyID:      companyID,
		PlatformUserID: platformUserID,
		AmoCRMUserID:   amoUserID,
	})
}

// Stats aggregates lead outcomes for a reporting window, then applies the
// view filters.
func (s *AmoCRMService) Stats(ctx context.Context, companyID uuid.UUID, rng, from, to, sortKey string, minTotal int, q string) (*amocrm.Summary, amocrm.Period, error) {
	client, err := s.client(ctx, companyID)
	if err != nil {
		return nil, amocrm.Period{}, err
	}

	period := amocrm.ResolvePeriod(rng, from, to, time.Now())
	summary, err := amocrm.ComputeStats(ctx, client, period.From, period.To)
	if err != nil {
		return nil, period, err
	}
	summary.Rows = amocrm.ApplyViewFilters(summary.Rows, sortKey, minTotal, q)
	return &summary, period, nil
}

// ExportCSV streams the filtered stats table as CSV.
func (s *AmoCRMService) ExportCSV(ctx context.Context, w io.Writer, companyID uuid.UUID, rng, from, to, sortKey string, minTotal int, q string) error {
	summary, _, err := s.Stats(ctx, companyID, rng, from, to, sortKey, minTotal, q)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Manager", "Created", "Won", "Lost", "Conversion %"}); err != nil {
		return err
	}
	for _, row := range summary.Rows {
		record := []string{
			row.DisplayName,
			strconv.Itoa(row.Created),
			strconv.Itoa(row.Won),
			strconv.Itoa(row.Lost),
			strconv.Itoa(row.Conv),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RealtimeRow is today's synced numbers for one mapped employee.
type RealtimeRow struct {
	UserID        uuid.UUID `json:"user_id"`
	Username      string    `json:"username"`
	CallsCount    int       `json:"calls_count"`
	MinutesTalked float64   `json:"minutes_talked"`
	LeadsWon      int       `json:"leads_won"`
	LeadsLost     int       `json:"leads_lost"`
	Conversion    float64   `json:"conversion"`
	WinsPerHour   float64   `json:"wins_per_hour"`
}

// Realtime returns everyone's numbers for today from the local sync rows,
// so the board refreshes without hammering the CRM.
func (s *AmoCRMService) Realtime(ctx context.Context, companyID uuid.UUID) ([]RealtimeRow, error) {
	maps, err := s.amoRepo.ListUserMaps(ctx, companyID)
	if err != nil {
		return nil, err
	}

	hoursElapsed := time.Since(today()).Hours()
	if hoursElapsed < 1 {
		hoursElapsed = 1
	}

	rows := make([]RealtimeRow, 0, len(maps))
	for _, m := range maps {
		user, err := s.userRepo.FindByID(ctx, m.PlatformUserID)
		if err != nil || user == nil {
			continue
		}
		row := RealtimeRow{UserID: user.ID, Username: user.DisplayName()}
		if stat, err := s.statsRepo.GetByUserAndDate(ctx, user.ID, today()); err == nil && stat != nil {
			row.CallsCount = stat.CallsCount
			row.MinutesTalked = stat.MinutesTalked()
			row.LeadsWon = stat.LeadsWon
			row.LeadsLost = stat.LeadsLost
			row.Conversion = stat.Conversion()
			row.WinsPerHour = math.Round(float64(stat.LeadsWon)/hoursElapsed*100) / 100
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// SyncCompany refreshes the daily stat of every mapped employee. Individual
// failures are logged so one broken mapping doesn't stall the rest.
func (s *AmoCRMService) SyncCompany(ctx context.Context, companyID uuid.UUID) (int, error) {
	maps, err := s.amoRepo.ListUserMaps(ctx, companyID)
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, m := range maps {
		user, err := s.userRepo.FindByID(ctx, m.PlatformUserID)
		if err != nil || user == nil {
			continue
		}
		if _, err := s.SyncUserStats(ctx, user); err != nil {
			log.Printf("crm sync: user %s: %v", user.ID, err)
			continue
		}
		synced++
	}
	return synced, nil
}

// SyncUserStats pulls today's calls and lead outcomes for one employee and
// stores them as the user's daily stat row. Newly crossed achievement
// thresholds are granted along the way.
func (s *AmoCRMService) SyncUserStats(ctx context.Context, user *models.User) (*models.UserDailyStat, error) {
	if user.CompanyID == nil {
		return nil, ErrUserNotMapped
	}
	mapping, err := s.amoRepo.GetUserMap(ctx, *user.CompanyID, user.ID)
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		return nil, ErrUserNotMapped
	}

	client, err := s.client(ctx, *user.CompanyID)
	if err != nil {
		return nil, err
	}

	day := today()
	tsFrom := day.Unix() - syncDayStartOffset

	stat := &models.UserDailyStat{UserID: user.ID, Date: day}

	events, err := client.FetchEvents(ctx, tsFrom, 250)
	if err != nil {
		return nil, err
	}
	for _, event := range events {
		note, ok := event.Note()
		if !ok || !note.IsCall() {
			continue
		}
		// The call belongs to the user when they either own the note or
		// logged the event themselves.
		if note.ResponsibleUserID != mapping.AmoCRMUserID && event.CreatedBy != mapping.AmoCRMUserID {
			continue
		}
		duration := int(note.Params.Duration)
		if duration <= 0 {
			continue
		}
		stat.CallsCount++
		stat.TalkSeconds += duration
	}

	created, err := client.LeadsByResponsible(ctx, "created_at", tsFrom, mapping.AmoCRMUserID)
	if err != nil {
		return nil, err
	}
	stat.LeadsCreated = len(created)

	closed, err := client.LeadsByResponsible(ctx, "closed_at", tsFrom, mapping.AmoCRMUserID)
	if err != nil {
		return nil, err
	}
	for _, lead := range closed {
		switch lead.StatusID {
		case amocrm.WonStatusID:
			stat.LeadsWon++
		case amocrm.LostStatusID:
			stat.LeadsLost++
		}
	}

	if err := s.statsRepo.Upsert(ctx, stat); err != nil {
		return nil, err
	}
	if err := s.amoRepo.TouchSync(ctx, *user.CompanyID); err != nil {
		return nil, err
	}

	s.checkAchievements(ctx, user.ID, stat)
	return stat, nil
}

// checkAchievements grants any threshold the fresh stats cross. The first
// new grant is queued for the reward modal.
func (s *AmoCRMService) checkAchievements(ctx context.Context, userID uuid.UUID, stat *models.UserDailyStat) {
	achievements, err := s.achRepo.ListAll(ctx)
	if err != nil {
		log.Printf("amocrm: list achievements: %v", err)
		return
	}

	for _, a := range achievements {
		var met bool
		switch a.ConditionType {
		case "calls":
			met = stat.CallsCount >= a.ConditionValue
		case "mins":
			met = stat.MinutesTalked() >= float64(a.ConditionValue)
		case "conv":
			met = stat.LeadsWon+stat.LeadsLost > 0 && stat.Conversion() >= float64(a.ConditionValue)
		}
		if !met {
			continue
		}

		granted, err := s.achRepo.Grant(ctx, userID, a.ID)
		if err != nil || !granted {
			continue
		}
		profile, err := s.gamRepo.GetProfileByUserID(ctx, userID)
		if err != nil || profile == nil {
			continue
		}
		if profile.PendingAchievementID == nil {
			achID := a.ID
			profile.PendingAchievementID = &achID
			profile.ShowRewardModal = true
			if err := s.gamRepo.SaveProfile(ctx, profile); err != nil {
				log.Printf("amocrm: queue achievement: %v", err)
			}
		}
	}
}

// Inspect proxies the raw entity dump for integration debugging.
func (s *AmoCRMService) Inspect(ctx context.Context, companyID uuid.UUID, entityType, entityID string) (map[string]any, error) {
	client, err := s.client(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return client.InspectEntity(ctx, entityType, entityID)
}
