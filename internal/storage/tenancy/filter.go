// Package tenancy реализует слой изоляции отелей поверх mongo-driver.
//
// Каждая операция чтения, изменения, удаления и подсчёта над коллекцией,
// принадлежащей отелю, проходит через Guard: если в фильтре нет условия на
// hotelId, а в контексте запроса установлен отель, условие добавляется.
// Явное условие вызывающего не переписывается.
package tenancy

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Field имя поля отеля-владельца в документах.
const Field = "hotelId"

var combinators = map[string]bool{"$and": true, "$or": true, "$nor": true}

// HasTenantCondition сообщает, есть ли в фильтре условие на hotelId,
// в том числе внутри $and/$or/$nor на любой глубине.
func HasTenantCondition(filter any) bool {
	found := false
	walk(filter, func(any) { found = true })
	return found
}

// TenantValues возвращает все идентификаторы отелей, упомянутые в условиях фильтра.
// Условия без конкретного значения (например $exists) не дают идентификаторов.
func TenantValues(filter any) []primitive.ObjectID {
	var out []primitive.ObjectID
	walk(filter, func(v any) { out = append(out, conditionIDs(v)...) })
	return out
}

// OpenConditions возвращает операторы условий на hotelId, которые не сводятся
// к равенству или $in конкретных отелей, например $ne или $exists: true.
// Такое условие может выбрать документы любого отеля.
func OpenConditions(filter any) []string {
	var out []string
	walk(filter, func(v any) { out = append(out, openOps(v)...) })
	return out
}

// supported сообщает, умеет ли слой разбирать фильтр этого типа.
func supported(filter any) bool {
	switch filter.(type) {
	case nil, bson.M, map[string]any, bson.D:
		return true
	}
	return false
}

func walk(filter any, visit func(value any)) {
	switch f := filter.(type) {
	case bson.M:
		walkMap(f, visit)
	case map[string]any:
		walkMap(f, visit)
	case bson.D:
		for _, e := range f {
			walkElem(e.Key, e.Value, visit)
		}
	case *bson.D:
		if f != nil {
			walk(*f, visit)
		}
	}
}

func walkMap(m map[string]any, visit func(value any)) {
	for k, v := range m {
		walkElem(k, v, visit)
	}
}

func walkElem(key string, value any, visit func(value any)) {
	if key == Field {
		visit(value)
		return
	}
	if !combinators[key] {
		return
	}
	for _, sub := range list(value) {
		walk(sub, visit)
	}
}

func list(v any) []any {
	switch l := v.(type) {
	case bson.A:
		return l
	case []any:
		return l
	case []bson.M:
		out := make([]any, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out
	case []bson.D:
		out := make([]any, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out
	case []map[string]any:
		out := make([]any, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out
	}
	return nil
}

// conditionIDs извлекает идентификаторы из значения условия: прямое равенство, $eq или $in.
func conditionIDs(v any) []primitive.ObjectID {
	if id, ok := asID(v); ok {
		return []primitive.ObjectID{id}
	}
	var ops map[string]any
	switch c := v.(type) {
	case bson.M:
		ops = c
	case map[string]any:
		ops = c
	case bson.D:
		ops = c.Map()
	default:
		return nil
	}
	var out []primitive.ObjectID
	if id, ok := asID(ops["$eq"]); ok {
		out = append(out, id)
	}
	in := ops["$in"]
	if ids, ok := in.([]primitive.ObjectID); ok {
		return append(out, ids...)
	}
	for _, item := range list(in) {
		if id, ok := asID(item); ok {
			out = append(out, id)
		}
	}
	return out
}

func openOps(v any) []string {
	if _, ok := asID(v); ok {
		return nil
	}
	var ops map[string]any
	switch c := v.(type) {
	case bson.M:
		ops = c
	case map[string]any:
		ops = c
	case bson.D:
		ops = c.Map()
	default:
		return []string{"literal"}
	}
	if len(ops) == 0 {
		return []string{"literal"}
	}
	var out []string
	for op, arg := range ops {
		switch op {
		case "$eq":
			if _, ok := asID(arg); ok {
				continue
			}
		case "$in":
			if onlyIDs(arg) {
				continue
			}
		case "$exists":
			// Только документы без отеля, то есть платформенные.
			if exists, ok := arg.(bool); ok && !exists {
				continue
			}
		}
		out = append(out, op)
	}
	return out
}

func onlyIDs(v any) bool {
	if _, ok := v.([]primitive.ObjectID); ok {
		return true
	}
	items := list(v)
	if items == nil {
		return false
	}
	for _, item := range items {
		if _, ok := asID(item); !ok {
			return false
		}
	}
	return true
}

func asID(v any) (primitive.ObjectID, bool) {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id, true
	case *primitive.ObjectID:
		if id != nil {
			return *id, true
		}
	case string:
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			return oid, true
		}
	}
	return primitive.NilObjectID, false
}

// inject возвращает копию фильтра с условием hotelId = id. Исходный фильтр не меняется.
func inject(filter any, id primitive.ObjectID) any {
	switch f := filter.(type) {
	case nil:
		return bson.M{Field: id}
	case bson.M:
		out := make(bson.M, len(f)+1)
		for k, v := range f {
			out[k] = v
		}
		out[Field] = id
		return out
	case map[string]any:
		out := make(bson.M, len(f)+1)
		for k, v := range f {
			out[k] = v
		}
		out[Field] = id
		return out
	case bson.D:
		out := make(bson.D, 0, len(f)+1)
		out = append(out, bson.E{Key: Field, Value: id})
		return append(out, f...)
	}
	return filter
}

// ScopedQuery объединяет фильтр с условием hotelId = id для обработчиков,
// которые задают отель явно. Верхнеуровневое условие на hotelId заменяется.
func ScopedQuery(id primitive.ObjectID, filter any) bson.M {
	out := bson.M{}
	switch f := filter.(type) {
	case bson.M:
		for k, v := range f {
			out[k] = v
		}
	case map[string]any:
		for k, v := range f {
			out[k] = v
		}
	case bson.D:
		for _, e := range f {
			out[e.Key] = e.Value
		}
	}
	out[Field] = id
	return out
}

// Owned реализуют документы, принадлежащие отелю.
type Owned interface {
	OwnerHotel() primitive.ObjectID
}

// Ownable описывает Owned, которому можно проставить отель при вставке.
type Ownable interface {
	Owned
	SetOwnerHotel(id primitive.ObjectID)
}

// BelongsTo сообщает, принадлежит ли загруженный документ отелю id.
func BelongsTo(doc any, id primitive.ObjectID) bool {
	if id.IsZero() {
		return false
	}
	var owner any
	switch d := doc.(type) {
	case nil:
		return false
	case Owned:
		owner = d.OwnerHotel()
	case bson.M:
		owner = d[Field]
	case map[string]any:
		owner = d[Field]
	case bson.D:
		owner = d.Map()[Field]
	default:
		return false
	}
	got, ok := asID(owner)
	return ok && got == id
}
