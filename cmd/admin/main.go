package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/auth"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/config"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
)

const initialPasswordLength = 24

func main() {
	var (
		email    = flag.String("email", "", "初始管理员邮箱（必填）")
		fullName = flag.String("full-name", "Administrator", "管理员姓名")
		dbHost   = flag.String("db-host", "", "覆盖 DATABASE_HOST")
		dbPort   = flag.Int("db-port", 0, "覆盖 DATABASE_PORT")
		dbName   = flag.String("db-name", "", "覆盖 POSTGRES_DB")
		dbUser   = flag.String("db-user", "", "覆盖 POSTGRES_USER")
		dbPass   = flag.String("db-password", "", "覆盖 POSTGRES_PASSWORD")
		sslMode  = flag.String("db-sslmode", "", "覆盖 DATABASE_SSLMODE")
	)
	flag.Parse()

	addr := strings.ToLower(strings.TrimSpace(*email))
	if addr == "" || !strings.Contains(addr, "@") {
		log.Fatal("missing or invalid required flag: --email")
	}
	name := strings.TrimSpace(*fullName)
	if name == "" {
		log.Fatal("--full-name must not be blank")
	}

	dbCfg, err := config.LoadDatabase()
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}
	overrideString(&dbCfg.Host, *dbHost)
	overrideString(&dbCfg.Name, *dbName)
	overrideString(&dbCfg.User, *dbUser)
	overrideString(&dbCfg.Password, *dbPass)
	overrideString(&dbCfg.SSLMode, *sslMode)
	if *dbPort > 0 {
		dbCfg.Port = *dbPort
	}
	if err := dbCfg.Validate(); err != nil {
		log.Fatalf("database config: %v", err)
	}

	db, err := database.InitDatabase(dbCfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	password, err := createAdmin(ctx, db, addr, name)
	if err != nil {
		log.Fatalf("create admin: %v", err)
	}

	fmt.Printf("已创建初始管理员账号（首次登录需强制改密）：\n")
	fmt.Printf("邮箱: %s\n", addr)
	fmt.Printf("初始密码: %s\n", password)
	fmt.Printf("提示：请立即登录并修改密码（该密码仅显示一次）。\n")
}

// createAdmin 插入一个必须改密的管理员并返回明文初始密码。邮箱已存在时报错，不改动原账号。
func createAdmin(ctx context.Context, db *gorm.DB, email, fullName string) (string, error) {
	var existing database.User
	switch err := db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; {
	case err == nil:
		return "", fmt.Errorf("user %q already exists with role %s", email, existing.Role)
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return "", fmt.Errorf("query user: %w", err)
	}

	password, err := auth.GenerateRandomPassword(initialPasswordLength)
	if err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user := database.User{
		Email:              email,
		PasswordHash:       hashed,
		FullName:           fullName,
		Role:               database.RoleAdmin,
		IsActive:           true,
		MustChangePassword: true,
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return "", fmt.Errorf("insert admin: %w", err)
	}
	return password, nil
}

func overrideString(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}
