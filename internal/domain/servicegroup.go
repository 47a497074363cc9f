package domain

import "time"

// LifecycleState представляет состояние жизненного цикла группы сервисов
type LifecycleState string

// Возможные состояния группы сервисов
const (
	StateActive  LifecycleState = "ACTIVE"  // Группа активна и видима
	StateDeleted LifecycleState = "DELETED" // Группа мягко удалена
)

// ServiceGroup представляет группу сервисов с историей версий
type ServiceGroup struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description *string        `json:"description,omitempty"`
	OwnerUserID string         `json:"user_id"` // Устанавливается при создании, никогда не меняется
	Tags        []string       `json:"tags"`
	State       LifecycleState `json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   *time.Time     `json:"deleted_at,omitempty"`
	Versions    []*Version     `json:"versions"`
}

// ServiceGroupSummary представляет сокращенную информацию о группе (используется в списках).
// Версии отдаются только идентификаторами, чтобы списочные ответы оставались компактными.
type ServiceGroupSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	OwnerUserID string    `json:"user_id"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	VersionIDs  []string  `json:"versions"`
}

// Version представляет неизменяемую запись в истории версий группы сервисов
type Version struct {
	ID               string            `json:"id"`
	ServiceGroupID   string            `json:"service_group_id"`
	VersionNumber    int               `json:"version"`
	IsActive         bool              `json:"is_active"`
	Changelog        ChangelogSnapshot `json:"changelog"`
	ReleaseDate      *time.Time        `json:"release_date,omitempty"`
	DocumentationURL *string           `json:"documentation_url,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// ChangelogSnapshot это слепок полей группы на момент записи версии.
// Записывается один раз при создании версии и никогда не изменяется.
type ChangelogSnapshot struct {
	Name         string   `json:"name"`
	Description  *string  `json:"description,omitempty"`
	Tags         []string `json:"tags"`
	EditorUserID string   `json:"userId"`
}

// SortDirection задает направление сортировки списка групп
type SortDirection string

// Возможные направления сортировки
const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// ServiceGroupFilter содержит параметры выборки списка групп сервисов
type ServiceGroupFilter struct {
	Search string
	Sort   SortDirection
	Page   int
	Limit  int
}

// IsDeleted возвращает true если группа мягко удалена
func (g *ServiceGroup) IsDeleted() bool {
	return g.State == StateDeleted
}

// ActiveVersions возвращает все версии группы с установленным флагом is_active
func (g *ServiceGroup) ActiveVersions() []*Version {
	var active []*Version
	for _, v := range g.Versions {
		if v.IsActive {
			active = append(active, v)
		}
	}
	return active
}

// MaxVersionNumber возвращает наибольший номер версии среди загруженных версий группы.
// Номера могут идти не подряд (например, после массового импорта), поэтому
// следующий номер вычисляется от максимума, а не от активной версии.
func (g *ServiceGroup) MaxVersionNumber() int {
	max := 0
	for _, v := range g.Versions {
		if v.VersionNumber > max {
			max = v.VersionNumber
		}
	}
	return max
}

// Snapshot строит слепок текущих полей группы от имени указанного редактора
func (g *ServiceGroup) Snapshot(editorUserID string) ChangelogSnapshot {
	tags := make([]string, len(g.Tags))
	copy(tags, g.Tags)
	return ChangelogSnapshot{
		Name:         g.Name,
		Description:  g.Description,
		Tags:         tags,
		EditorUserID: editorUserID,
	}
}
