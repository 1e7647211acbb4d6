package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/salesjourney/backend/internal/models"
	"github.com/salesjourney/backend/internal/repositories"
	"github.com/salesjourney/backend/internal/utils"
)

type AdminService struct {
	userRepo    *repositories.UserRepository
	companyRepo *repositories.CompanyRepository
	partnerRepo *repositories.PartnerRepository
	gamRepo     *repositories.GamificationRepository
	shopRepo    *repositories.ShopRepository
	achRepo     *repositories.AchievementRepository
}

func NewAdminService(userRepo *repositories.UserRepository, companyRepo *repositories.CompanyRepository, partnerRepo *repositories.PartnerRepository, gamRepo *repositories.GamificationRepository, shopRepo *repositories.ShopRepository, achRepo *repositories.AchievementRepository) *AdminService {
	return &AdminService{
		userRepo:    userRepo,
		companyRepo: companyRepo,
		partnerRepo: partnerRepo,
		gamRepo:     gamRepo,
		shopRepo:    shopRepo,
		achRepo:     achRepo,
	}
}

// Overview is the platform-wide counters block of the admin panel.
type Overview struct {
	Companies int64 `json:"companies"`
	Users     int64 `json:"users"`
	Partners  int64 `json:"partners"`
}

func (s *AdminService) Overview(ctx context.Context) (*Overview, error) {
	companies, err := s.companyRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	partners, err := s.userRepo.CountByRoles(ctx, []models.UserRole{models.RolePartner, models.RoleCompanyOwner})
	if err != nil {
		return nil, err
	}
	return &Overview{Companies: companies, Users: users, Partners: partners}, nil
}

func (s *AdminService) ListCompanies(ctx context.Context) ([]models.Company, error) {
	return s.companyRepo.ListAll(ctx)
}

func (s *AdminService) ListPartners(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListByRoles(ctx, []models.UserRole{models.RolePartner, models.RoleCompanyOwner})
}

// CreatedCompany is the wizard result. TempPassword is returned exactly
// once so the admin can hand it to the new owner.
type CreatedCompany struct {
	Company      *models.Company `json:"company"`
	Owner        *models.User    `json:"owner"`
	TempPassword string          `json:"temp_password"`
}

// CreateCompany provisions a company together with its owner account. A
// known owner email is reused and promoted to PARTNER when needed; only a
// fresh account gets a generated password and the forced first-login
// change.
func (s *AdminService) CreateCompany(ctx context.Context, name, ownerEmail string) (*CreatedCompany, error) {
	ownerEmail = strings.ToLower(strings.TrimSpace(ownerEmail))

	owner, err := s.userRepo.FindByEmail(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}

	var tempPassword string
	if owner == nil {
		tempPassword, err = utils.GenerateTempPassword()
		if err != nil {
			return nil, err
		}
		hash, err := utils.Hash(tempPassword)
		if err != nil {
			return nil, err
		}
		owner = &models.User{
			Email:              ownerEmail,
			PasswordHash:       hash,
			MustChangePassword: true,
			Role:               models.RoleCompanyOwner,
		}
		if err := s.userRepo.Create(ctx, owner); err != nil {
			return nil, err
		}
	} else if !owner.Role.IsPartner() && owner.Role != models.RoleSuperAdmin {
		if err := s.userRepo.UpdateRole(ctx, owner.ID, models.RolePartner); err != nil {
			return nil, err
		}
		owner.Role = models.RolePartner
	}

	partner, err := s.partnerRepo.GetByUserID(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	if partner == nil {
		partner = &models.PartnerUser{UserID: owner.ID}
		if err := s.partnerRepo.Create(ctx, partner); err != nil {
			return nil, err
		}
	}

	company := &models.Company{
		Name:           name,
		OwnerPartnerID: partner.ID,
	}
	if err := s.companyRepo.Create(ctx, company); err != nil {
		return nil, err
	}

	// Owners live inside their own company so dashboards resolve. An owner
	// who already belongs to a company keeps their membership.
	if owner.CompanyID == nil {
		owner.CompanyID = &company.ID
		if err := s.userRepo.UpdateCompany(ctx, owner.ID, company.ID); err != nil {
			return nil, err
		}
	}
	profile, err := s.gamRepo.GetProfileByUserID(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		if err := s.gamRepo.CreateProfile(ctx, &models.GamificationProfile{UserID: owner.ID}); err != nil {
			return nil, err
		}
	}

	return &CreatedCompany{
		Company:      company,
		Owner:        owner,
		TempPassword: tempPassword,
	}, nil
}

func (s *AdminService) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	company, err := s.companyRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if company == nil {
		return errors.New("company not found")
	}
	return s.companyRepo.Delete(ctx, id)
}

// Seed provisions the bootstrap data on an empty database: the super admin
// account, the global shop catalog and the achievement definitions.
func (s *AdminService) Seed(ctx context.Context) error {
	if err := s.seedSuperAdmin(ctx); err != nil {
		return err
	}
	if err := s.seedShop(ctx); err != nil {
		return err
	}
	return s.seedAchievements(ctx)
}

func (s *AdminService) seedSuperAdmin(ctx context.Context) error {
	existing, err := s.userRepo.FindByUsername(ctx, "admin")
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hash, err := utils.Hash("admin")
	if err != nil {
		return err
	}
	username := "admin"
	admin := &models.User{
		Username:           &username,
		Email:              "admin@salesjourney.local",
		PasswordHash:       hash,
		MustChangePassword: true,
		Role:               models.RoleSuperAdmin,
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return err
	}
	log.Println("seeded super admin account")
	return nil
}

func (s *AdminService) seedShop(ctx context.Context) error {
	any, err := s.shopRepo.Any(ctx)
	if err != nil || any {
		return err
	}

	items := []models.ShopItem{
		{
			Name:  "Mystery Box",
			Price: 50,
			Type:  models.ItemMysteryBox,
			Attributes: models.ShopItemAttributes{
				LootTable: []models.LootEntry{
					{Name: "Jackpot", Type: "coins", Amount: 500, Weight: 5},
					{Name: "Coin Pouch", Type: "coins", Amount: 100, Weight: 20},
					{Name: "Small Win", Type: "coins", Amount: 25, Weight: 35},
					{Name: "Team Lunch Voucher", Type: "real", Weight: 5, Description: "Lunch on the company"},
					{Name: "Empty Box", Type: "miss", Weight: 35},
				},
			},
		},
		{Name: "Day Off", Price: 1000, Type: models.ItemReal},
		{Name: "Coffee Voucher", Price: 150, Type: models.ItemReal},
		{Name: "Legend Title", Price: 300, Type: models.ItemDigital},
	}
	for i := range items {
		if err := s.shopRepo.Create(ctx, &items[i]); err != nil {
			return err
		}
	}
	log.Println("seeded default shop catalog")
	return nil
}

func (s *AdminService) seedAchievements(ctx context.Context) error {
	count, err := s.achRepo.Count(ctx)
	if err != nil || count > 0 {
		return err
	}

	achievements := []models.Achievement{
		{Name: "First Dial", Description: "Make 1 call in a day", IconCode: "phone", ConditionType: "calls", ConditionValue: 1},
		{Name: "Warm Line", Description: "Make 20 calls in a day", IconCode: "phone-call", ConditionType: "calls", ConditionValue: 20},
		{Name: "Switchboard", Description: "Make 50 calls in a day", IconCode: "headset", ConditionType: "calls", ConditionValue: 50},
		{Name: "Marathon Talker", Description: "Talk for 60 minutes in a day", IconCode: "clock", ConditionType: "mins", ConditionValue: 60},
		{Name: "Closer", Description: "Hit 50% conversion in a day", IconCode: "target", ConditionType: "conv", ConditionValue: 50},
	}
	for i := range achievements {
		if err := s.achRepo.Create(ctx, &achievements[i]); err != nil {
			return err
		}
	}
	log.Println("seeded achievement definitions")
	return nil
}
