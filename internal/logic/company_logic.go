package logic

import (
	"errors"
	"fmt"

	"github.com/blues/ifs/internal/model"
	"gorm.io/gorm"
)

// CompanyLogic 发行方公司业务逻辑
type CompanyLogic struct {
	db *gorm.DB
}

// NewCompanyLogic 创建公司业务逻辑
func NewCompanyLogic(db *gorm.DB) *CompanyLogic {
	return &CompanyLogic{db: db}
}

// CreateCompany 创建公司
// 已带钱包地址的公司在同一事务内写入上链注册事件
func (c *CompanyLogic) CreateCompany(company *model.Company) error {
	if company.Name == "" {
		return errors.New("公司名称不能为空")
	}
	if company.TinNumber == "" {
		return errors.New("税号不能为空")
	}

	company.Id = model.NewId()
	company.Verified = false
	company.RegisteredOnBlockchain = false

	return c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(company).Error; err != nil {
			return fmt.Errorf("创建公司失败: %w", err)
		}
		if company.WalletAddress != "" {
			return tx.Create(model.NewOutboxEvent(model.EventCompanyCreated, company.Id)).Error
		}
		return nil
	})
}

// BindWallet 绑定钱包与凭证信息，触发上链注册
func (c *CompanyLogic) BindWallet(id, walletAddress, vcHash, ipfsHash string) error {
	if walletAddress == "" {
		return errors.New("钱包地址不能为空")
	}

	company, err := c.GetCompany(id)
	if err != nil {
		return err
	}
	if company.RegisteredOnBlockchain {
		return errors.New("公司已完成上链注册")
	}

	return c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Company{}).Where("id = ?", id).Updates(map[string]interface{}{
			"wallet_address":     walletAddress,
			"vc_hash":            vcHash,
			"ipfs_document_hash": ipfsHash,
		}).Error; err != nil {
			return err
		}
		return tx.Create(model.NewOutboxEvent(model.EventCompanyCreated, id)).Error
	})
}

// VerifyCompany 平台审核通过公司资质
func (c *CompanyLogic) VerifyCompany(id string) error {
	company, err := c.GetCompany(id)
	if err != nil {
		return err
	}
	if company.Verified {
		return nil
	}
	return c.db.Model(&model.Company{}).Where("id = ?", id).Update("verified", true).Error
}

// GetCompany 获取公司详情
func (c *CompanyLogic) GetCompany(id string) (*model.Company, error) {
	var company model.Company
	if err := c.db.First(&company, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("公司不存在")
		}
		return nil, fmt.Errorf("获取公司详情失败: %w", err)
	}
	return &company, nil
}

// GetCompanies 获取公司列表
func (c *CompanyLogic) GetCompanies() ([]model.Company, error) {
	var companies []model.Company
	if err := c.db.Find(&companies).Error; err != nil {
		return nil, fmt.Errorf("获取公司列表失败: %w", err)
	}
	return companies, nil
}
