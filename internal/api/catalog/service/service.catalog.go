// Package catalogsvc chứa service danh mục field chuẩn: load/reload snapshot,
// phân giải key field từ payload và thông dịch công thức cho field calculated.
package catalogsvc

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	basesvc "store_reports/internal/api/base/service"
	catalogmodels "store_reports/internal/api/catalog/models"
	"store_reports/internal/api/events"
	"store_reports/internal/common"
	"store_reports/internal/global"
	"store_reports/internal/logger"
)

// Snapshot catalog dùng chung cho toàn process. Reload thay nguyên con trỏ,
// reader lấy con trỏ một lần cho mỗi request nên không bị snapshot đổi giữa chừng.
var (
	snapshotMu sync.RWMutex
	snapshot   *catalogmodels.Catalog
)

// Khi collection catalog_fields thay đổi qua base service thì bỏ snapshot hiện tại,
// request kế tiếp sẽ lazy load bản mới. Đăng ký một lần cho cả process.
func init() {
	events.OnDataChanged(func(_ context.Context, e events.DataChangeEvent) {
		if e.CollectionName != global.MongoDB_ColNames.CatalogFields {
			return
		}
		snapshotMu.Lock()
		snapshot = nil
		snapshotMu.Unlock()
	})
}

// CatalogService là service quản lý danh mục field chuẩn
type CatalogService struct {
	*basesvc.BaseServiceMongoImpl[catalogmodels.CatalogField]
}

// NewCatalogService tạo mới CatalogService
func NewCatalogService() (*CatalogService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.CatalogFields)
	if !exist {
		return nil, fmt.Errorf("failed to get catalog_fields collection: %v", common.ErrNotFound)
	}
	return &CatalogService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[catalogmodels.CatalogField](coll),
	}, nil
}

// Snapshot trả về snapshot catalog hiện tại, load lần đầu nếu chưa có.
// Caller giữ con trỏ trả về trong suốt một request, không gọi lại giữa chừng.
func (s *CatalogService) Snapshot(ctx context.Context) (*catalogmodels.Catalog, error) {
	snapshotMu.RLock()
	current := snapshot
	snapshotMu.RUnlock()
	if current != nil {
		return current, nil
	}
	return s.Reload(ctx)
}

// Reload đọc lại toàn bộ danh mục field từ database và thay snapshot hiện tại.
// Snapshot cũ vẫn hợp lệ với các request đang chạy dở.
func (s *CatalogService) Reload(ctx context.Context) (*catalogmodels.Catalog, error) {
	fields, err := s.Find(ctx, bson.M{"active": true}, nil)
	if err != nil {
		return nil, err
	}

	newSnapshot := buildCatalog(fields)

	snapshotMu.Lock()
	snapshot = newSnapshot
	snapshotMu.Unlock()

	logger.WithModuleAndCollection("catalog", global.MongoDB_ColNames.CatalogFields).
		WithField("departments", len(newSnapshot.DepartmentCodes())).
		WithField("fields", len(fields)).
		Info("Đã load snapshot danh mục field")

	return newSnapshot, nil
}

// buildCatalog nhóm field theo bộ phận, sắp theo Order và build các chỉ mục tra cứu
func buildCatalog(fields []catalogmodels.CatalogField) *catalogmodels.Catalog {
	grouped := make(map[string][]*catalogmodels.FieldDefinition)
	for i := range fields {
		f := &fields[i]
		code := strings.ToLower(strings.TrimSpace(f.DepartmentCode))
		if code == "" || f.FieldID == "" {
			// Document thiếu khóa định danh thì bỏ qua, không làm hỏng cả snapshot
			logger.WithModuleAndCollection("catalog", global.MongoDB_ColNames.CatalogFields).
				WithField("_id", f.ID.Hex()).
				Warn("Field trong danh mục thiếu departmentCode hoặc fieldId, bỏ qua")
			continue
		}
		grouped[code] = append(grouped[code], &catalogmodels.FieldDefinition{
			ID:        f.FieldID,
			Label:     f.Label,
			ValueType: f.ValueType,
			Unit:      f.Unit,
			Category:  f.Category,
			Synonyms:  f.Synonyms,
			RowFields: f.RowFields,
			Formula:   f.Formula,
			FixedAttr: f.FixedAttr,
			Order:     f.Order,
		})
	}

	departments := make(map[string]*catalogmodels.DepartmentCatalog, len(grouped))
	for code, defs := range grouped {
		sort.SliceStable(defs, func(i, j int) bool {
			if defs[i].Order != defs[j].Order {
				return defs[i].Order < defs[j].Order
			}
			return defs[i].ID < defs[j].ID
		})
		departments[code] = catalogmodels.NewDepartmentCatalog(code, defs)
	}

	return catalogmodels.NewCatalog(departments, time.Now().UnixMilli())
}
