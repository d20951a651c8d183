package services

import (
	"errors"
	"fmt"
	"sentinel-lockup-service/internal/domain/models"
	"sentinel-lockup-service/internal/infrastructure/config"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// InterfaceAdminService 操作员账号服务（管理员和签到终端）
type InterfaceAdminService interface {
	CheckPassword(password, hash string) bool
	GetAdminByID(id uint) (*models.Admin, error)
	GetAdminByUsername(username string) (*models.Admin, error)
	GetAllAdmins(page, pageSize int, search string) ([]models.Admin, int64, error)
	CreateAdmin(admin *models.Admin) error
	UpdateAdmin(id uint, updates map[string]interface{}) (*models.Admin, error)
	DeleteAdmin(id uint) error
}

// AdminService 提供管理员相关的服务
type AdminService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewAdminService 创建一个新的管理员服务
func NewAdminService(db *gorm.DB, cfg *config.Config) InterfaceAdminService {
	return &AdminService{
		DB:     db,
		Config: cfg,
	}
}

// 1  CheckPassword 验证密码是否匹配
func (s *AdminService) CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// 2 GetAllAdmins 获取所有账号，支持分页
func (s *AdminService) GetAllAdmins(page, pageSize int, search string) ([]models.Admin, int64, error) {
	var admins []models.Admin
	var total int64

	query := s.DB.Model(&models.Admin{})
	if search != "" {
		query = query.Where("username LIKE ? OR email LIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order("id ASC").Offset(offset).Limit(pageSize).Find(&admins).Error; err != nil {
		return nil, 0, err
	}
	return admins, total, nil
}

// 3  GetAdminByID 根据ID获取账号
func (s *AdminService) GetAdminByID(id uint) (*models.Admin, error) {
	var admin models.Admin
	if err := s.DB.First(&admin, id).Error; err != nil {
		return nil, notFound(err, "account", id)
	}
	return &admin, nil
}

// 4  GetAdminByUsername 根据用户名获取账号
func (s *AdminService) GetAdminByUsername(username string) (*models.Admin, error) {
	var admin models.Admin
	if err := s.DB.Where("username = ?", username).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: account %q", ErrNotFound, username)
		}
		return nil, err
	}
	return &admin, nil
}

// 5  CreateAdmin 创建账号，密码以bcrypt保存
func (s *AdminService) CreateAdmin(admin *models.Admin) error {
	admin.Username = strings.TrimSpace(admin.Username)
	if admin.Username == "" || admin.Password == "" {
		return fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}
	if admin.Role == "" {
		admin.Role = models.AdminRoleAdmin
	}
	if admin.Role != models.AdminRoleAdmin && admin.Role != models.AdminRoleKiosk {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, admin.Role)
	}
	if admin.Status == "" {
		admin.Status = "active"
	}

	// 验证用户名唯一性
	var count int64
	if err := s.DB.Model(&models.Admin{}).Where("username = ?", admin.Username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: username %q", ErrAlreadyExists, admin.Username)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("密码加密失败: %v", err)
	}
	admin.Password = string(hashedPassword)

	return s.DB.Create(admin).Error
}

// 6  UpdateAdmin 更新账号信息
func (s *AdminService) UpdateAdmin(id uint, updates map[string]interface{}) (*models.Admin, error) {
	admin, err := s.GetAdminByID(id)
	if err != nil {
		return nil, err
	}

	// 如果更新用户名，需要检查唯一性
	if username, ok := updates["username"].(string); ok && username != admin.Username {
		var count int64
		if err := s.DB.Model(&models.Admin{}).Where("username = ? AND id != ?", username, admin.ID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, fmt.Errorf("%w: username %q", ErrAlreadyExists, username)
		}
	}

	// 如果更新密码，需要进行哈希处理
	if password, ok := updates["password"].(string); ok {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("密码加密失败: %v", err)
		}
		updates["password"] = string(hashedPassword)
	}

	if err := s.DB.Model(admin).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetAdminByID(id)
}

// 7  DeleteAdmin 删除账号，至少保留一个管理员
func (s *AdminService) DeleteAdmin(id uint) error {
	admin, err := s.GetAdminByID(id)
	if err != nil {
		return err
	}

	if admin.Role == models.AdminRoleAdmin {
		var count int64
		if err := s.DB.Model(&models.Admin{}).Where("role = ?", models.AdminRoleAdmin).Count(&count).Error; err != nil {
			return err
		}
		if count <= 1 {
			return fmt.Errorf("%w: cannot delete the last administrator", ErrInvalidState)
		}
	}

	return s.DB.Delete(&models.Admin{}, id).Error
}
