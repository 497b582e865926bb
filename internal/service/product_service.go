package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/MikuAddict/flea-market-sub000/internal/apperr"
	"github.com/MikuAddict/flea-market-sub000/internal/auth"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/product"
)

// ProductService 商品目录协作方：订单引擎只依赖这里的查询能力
type ProductService struct {
	repo product.Repository
}

// NewProductService 创建商品服务
func NewProductService(repo product.Repository) *ProductService {
	return &ProductService{repo: repo}
}

func (s *ProductService) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "商品不存在")
		}
		return nil, apperr.Wrap(apperr.Internal, "查询商品失败", err)
	}
	return p, nil
}

func (s *ProductService) ListListed(ctx context.Context) ([]*product.Product, error) {
	list, err := s.repo.ListListed(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "查询商品列表失败", err)
	}
	return list, nil
}

func (s *ProductService) ListByOwner(ctx context.Context, ownerID int64) ([]*product.Product, error) {
	list, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "查询商品列表失败", err)
	}
	return list, nil
}

func (s *ProductService) ListAll(ctx context.Context) ([]*product.Product, error) {
	list, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "查询商品列表失败", err)
	}
	return list, nil
}

// Publish 发布商品，归属发布者并直接上架
func (s *ProductService) Publish(ctx context.Context, caller auth.Identity, p *product.Product) error {
	if err := guardCaller(caller); err != nil {
		return err
	}
	if p.Name == "" {
		return apperr.New(apperr.InvalidArgument, "商品名称不能为空")
	}
	if p.Price <= 0 {
		return apperr.New(apperr.InvalidArgument, "商品价格必须大于 0")
	}
	p.OwnerID = caller.UserID
	p.Status = product.StatusListed
	if err := s.repo.Create(ctx, p); err != nil {
		return apperr.Wrap(apperr.Internal, "创建商品失败", err)
	}
	return nil
}

// Delist 下架商品，仅货主或管理员
func (s *ProductService) Delist(ctx context.Context, caller auth.Identity, id int64) error {
	if err := guardCaller(caller); err != nil {
		return err
	}
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.OwnerID != caller.UserID && !caller.IsAdmin() {
		return apperr.New(apperr.PermissionDenied, "无权下架该商品")
	}
	if p.Status != product.StatusListed {
		return apperr.New(apperr.InvalidState, "商品不在售，无需下架")
	}
	p.Status = product.StatusDelisted
	if err := s.repo.Update(ctx, p); err != nil {
		return apperr.Wrap(apperr.Internal, "更新商品失败", err)
	}
	return nil
}
