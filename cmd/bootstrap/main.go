package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"parithera-api/internal/config"
	"parithera-api/internal/domain/entity"
	"parithera-api/internal/domain/repository"
	"parithera-api/internal/infrastructure/email"
	"parithera-api/internal/wire"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting system bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. 初始化数据层（仅 PostgreSQL）
	dataLayer, cleanup, err := wire.InitializePostgresOnly(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize data layer: %v", err)
	}
	defer cleanup()

	// 3. 建表
	fmt.Println("Running schema migration...")
	if err := dataLayer.PgClient.DB().AutoMigrate(
		&entity.Organization{},
		&entity.Membership{},
		&entity.User{},
		&entity.Project{},
		&entity.Sample{},
		&entity.SampleFile{},
		&entity.Chat{},
		&entity.Analyzer{},
		&entity.Analysis{},
		&entity.Result{},
	); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	// 4. 创建默认组织
	defaultOrgName := "Default Organization"
	org, err := findOrganizationByName(ctx, dataLayer, defaultOrgName)
	if err != nil {
		log.Fatalf("failed to look up default organization: %v", err)
	}
	if org == nil {
		fmt.Printf("Creating default organization: %s...\n", defaultOrgName)
		org = entity.NewOrganization(defaultOrgName, "Initial organization created by bootstrap")
		if err := dataLayer.OrgRepo.Create(ctx, org); err != nil {
			log.Fatalf("failed to create default organization: %v", err)
		}
		fmt.Printf("Default organization created with ID: %s\n", org.ID)
	} else {
		fmt.Printf("Default organization already exists with ID: %s\n", org.ID)
	}

	// 5. 创建首个管理员
	adminEmail := os.Getenv("BOOTSTRAP_ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@parithera.local"
	}
	adminPassword := os.Getenv("BOOTSTRAP_ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "admin123" // 生产环境请务必通过环境变量设置
	}

	admin, err := dataLayer.UserRepo.GetByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("failed to check admin existence: %v", err)
	}

	if admin == nil {
		fmt.Printf("Creating admin user: %s...\n", adminEmail)
		admin = entity.NewUser(adminEmail, "System", "Admin")
		admin.Activated = true
		if err := admin.SetPassword(adminPassword); err != nil {
			log.Fatalf("failed to hash admin password: %v", err)
		}
		if err := dataLayer.UserRepo.Create(ctx, admin); err != nil {
			log.Fatalf("failed to create admin user: %v", err)
		}
		_ = email.NewLogMailer().SendUserGreeting(ctx, admin.Email, admin.FirstName)
		fmt.Println("Admin user created successfully.")
	} else {
		fmt.Printf("Admin user %s already exists.\n", adminEmail)
	}

	// 6. 管理员加入默认组织
	membership, err := dataLayer.MembershipRepo.GetByOrgAndUser(ctx, org.ID, admin.ID)
	if err != nil {
		log.Fatalf("failed to check membership: %v", err)
	}
	if membership == nil {
		if err := dataLayer.MembershipRepo.Create(ctx, entity.NewMembership(org.ID, admin.ID, entity.MemberRoleOwner)); err != nil {
			log.Fatalf("failed to create membership: %v", err)
		}
		fmt.Println("Admin membership created.")
	}

	// 7. 注册脚本执行分析器，对话调度依赖它
	analyzerName := entity.AnalyzerNamePythonScript
	analyzer, err := dataLayer.AnalyzerRepo.GetByName(ctx, org.ID, analyzerName)
	if err != nil {
		log.Fatalf("failed to check analyzer existence: %v", err)
	}
	if analyzer == nil {
		fmt.Printf("Registering analyzer: %s...\n", analyzerName)
		analyzer = entity.NewAnalyzer(org.ID, analyzerName, "Dispatches generated python scripts to the analysis worker")
		if err := dataLayer.AnalyzerRepo.Create(ctx, analyzer); err != nil {
			log.Fatalf("failed to create analyzer: %v", err)
		}
		fmt.Println("Analyzer registered.")
	} else {
		fmt.Printf("Analyzer %s already exists.\n", analyzerName)
	}

	fmt.Println("Bootstrap completed successfully.")
}

// findOrganizationByName 分页遍历查找同名组织，引导数据量级下足够
func findOrganizationByName(ctx context.Context, dataLayer *wire.PostgresOnlyDataLayer, name string) (*entity.Organization, error) {
	page := 1
	for {
		result, err := dataLayer.OrgRepo.List(ctx, repository.NewPagination(page, 100))
		if err != nil {
			return nil, err
		}
		for _, org := range result.Items {
			if org.Name == name {
				return org, nil
			}
		}
		if page >= result.TotalPages {
			return nil, nil
		}
		page++
	}
}
