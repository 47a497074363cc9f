package postgres

import (
	"fmt"
	"strings"

	"github.com/aidar/service-catalog/internal/domain"
)

// defaultPageLimit применяется когда limit не задан или некорректен
const defaultPageLimit = 10

// listQuery накапливает условия выборки списка групп.
// Предикаты добавляются именованными построителями в фиксированном порядке
// и комбинируются через AND — без ручной склейки строк запроса по месту.
type listQuery struct {
	conds []string
	args  []any
}

// bind регистрирует аргумент и возвращает его позиционный плейсхолдер
func (q *listQuery) bind(v any) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

func (q *listQuery) where() string {
	if len(q.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.conds, " AND ")
}

// notDeletedPredicate исключает мягко удаленные группы
func notDeletedPredicate(q *listQuery) {
	q.conds = append(q.conds, "deleted_at IS NULL")
}

// ownerScopePredicate ограничивает выборку группами указанных владельцев.
// Пустой ownerIDs означает отсутствие командного ограничения.
func ownerScopePredicate(q *listQuery, ownerIDs []string) {
	if len(ownerIDs) == 0 {
		return
	}
	q.conds = append(q.conds, fmt.Sprintf("owner_user_id = ANY(%s::uuid[])", q.bind(ownerIDs)))
}

// searchPredicate добавляет регистронезависимый поиск подстроки
// по имени, описанию и сериализованным тегам
func searchPredicate(q *listQuery, search string) {
	term := strings.TrimSpace(search)
	if term == "" {
		return
	}
	p := q.bind("%" + term + "%")
	q.conds = append(q.conds, fmt.Sprintf("(name ILIKE %s OR description ILIKE %s OR tags ILIKE %s)", p, p, p))
}

// orderClause возвращает детерминированную сортировку: имя в запрошенном
// направлении, id по возрастанию как tiebreak для стабильной пагинации
func orderClause(sort domain.SortDirection) string {
	dir := "ASC"
	if sort == domain.SortDesc {
		dir = "DESC"
	}
	return fmt.Sprintf("ORDER BY name %s, id ASC", dir)
}

// normalizePagination приводит страницу и лимит к допустимым значениям
func normalizePagination(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	return page, limit
}

// buildListQuery собирает запрос страницы и запрос общего числа совпадений.
// Оба разделяют одинаковый набор предикатов; пагинация не влияет на счетчик.
func buildListQuery(filter domain.ServiceGroupFilter, ownerIDs []string) (pageSQL, countSQL string, pageArgs, countArgs []any) {
	q := &listQuery{}
	notDeletedPredicate(q)
	ownerScopePredicate(q, ownerIDs)
	searchPredicate(q, filter.Search)

	where := q.where()
	countSQL = "SELECT COUNT(*) FROM service_groups" + where
	countArgs = append([]any(nil), q.args...)

	page, limit := normalizePagination(filter.Page, filter.Limit)
	offset := (page - 1) * limit

	pageSQL = "SELECT id, name, description, owner_user_id, tags, created_at, updated_at FROM service_groups" +
		where + " " + orderClause(filter.Sort) +
		fmt.Sprintf(" LIMIT %s OFFSET %s", q.bind(limit), q.bind(offset))
	pageArgs = q.args

	return pageSQL, countSQL, pageArgs, countArgs
}
