package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the persisted types. The serializers follow the MUS
// layout conventions: varint-encoded integers and lengths, raw floats, and
// unix-microsecond timestamps.

// IDMUS serializes product IDs.
var IDMUS = idMUS{}

// StagedProductMUS serializes staged products.
var StagedProductMUS = stagedProductMUS{}

type idMUS struct{}

func (s idMUS) Marshal(v ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (s idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (s idMUS) Size(v ID) int {
	return varint.Uint64.Size(uint64(v))
}

// timeMUS serializes timestamps as unix microseconds.
// The zero time is encoded as the sentinel value 0 to survive round-trips.
type timeMUS struct{}

func (s timeMUS) Marshal(v time.Time, bs []byte) int {
	var micros int64
	if !v.IsZero() {
		micros = v.UnixMicro()
	}
	return varint.Int64.Marshal(micros, bs)
}

func (s timeMUS) Unmarshal(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || micros == 0 {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func (s timeMUS) Size(v time.Time) int {
	var micros int64
	if !v.IsZero() {
		micros = v.UnixMicro()
	}
	return varint.Int64.Size(micros)
}

// stringsMUS serializes string slices with a varint length prefix.
type stringsMUS struct{}

func (s stringsMUS) Marshal(v []string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, item := range v {
		n += ord.String.Marshal(item, bs[n:])
	}
	return n
}

func (s stringsMUS) Unmarshal(bs []byte) (v []string, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]string, length)
	for i := 0; i < length; i++ {
		var n1 int
		v[i], n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func (s stringsMUS) Size(v []string) (size int) {
	size = varint.Int.Size(len(v))
	for _, item := range v {
		size += ord.String.Size(item)
	}
	return size
}

// vectorMUS serializes embedding vectors with a varint length prefix.
type vectorMUS struct{}

func (s vectorMUS) Marshal(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, val := range v {
		n += raw.Float32.Marshal(val, bs[n:])
	}
	return n
}

func (s vectorMUS) Unmarshal(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]float32, length)
	for i := 0; i < length; i++ {
		var n1 int
		v[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func (s vectorMUS) Size(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	size += len(v) * raw.Float32.Size(0)
	return size
}

var (
	timeSer    = timeMUS{}
	stringsSer = stringsMUS{}
	vectorSer  = vectorMUS{}
)

type stagedProductMUS struct{}

func (s stagedProductMUS) Marshal(v StagedProduct, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(v.Id), bs)
	n += ord.String.Marshal(v.Code, bs[n:])
	n += ord.String.Marshal(v.ProductName, bs[n:])
	n += ord.String.Marshal(v.IngredientsText, bs[n:])

	n += stringsSer.Marshal(v.Tags.Brands, bs[n:])
	n += stringsSer.Marshal(v.Tags.Categories, bs[n:])
	n += stringsSer.Marshal(v.Tags.Ingredients, bs[n:])
	n += stringsSer.Marshal(v.Tags.IngredientsAnalysis, bs[n:])
	n += stringsSer.Marshal(v.Tags.Allergens, bs[n:])
	n += stringsSer.Marshal(v.Tags.AllergensHierarchy, bs[n:])
	n += stringsSer.Marshal(v.Tags.Traces, bs[n:])
	n += stringsSer.Marshal(v.Tags.Labels, bs[n:])

	n += ord.Bool.Marshal(v.Dietary.Vegan, bs[n:])
	n += ord.Bool.Marshal(v.Dietary.Vegetarian, bs[n:])
	n += ord.Bool.Marshal(v.Dietary.GlutenFree, bs[n:])
	n += ord.Bool.Marshal(v.Dietary.Kosher, bs[n:])
	n += ord.Bool.Marshal(v.Dietary.Halal, bs[n:])
	n += ord.Bool.Marshal(v.Dietary.Organic, bs[n:])

	n += raw.Float64.Marshal(v.Confidence.Vegan, bs[n:])
	n += raw.Float64.Marshal(v.Confidence.Vegetarian, bs[n:])
	n += raw.Float64.Marshal(v.Confidence.GlutenFree, bs[n:])
	n += raw.Float64.Marshal(v.Confidence.Kosher, bs[n:])
	n += raw.Float64.Marshal(v.Confidence.Halal, bs[n:])
	n += raw.Float64.Marshal(v.Confidence.Organic, bs[n:])

	n += raw.Float64.Marshal(v.DataQualityScore, bs[n:])
	n += raw.Float64.Marshal(v.PopularityScore, bs[n:])
	n += raw.Float64.Marshal(v.CompletenessScore, bs[n:])

	n += ord.Bool.Marshal(v.Nutrition != nil, bs[n:])
	if v.Nutrition != nil {
		n += raw.Float64.Marshal(v.Nutrition.Calories, bs[n:])
		n += raw.Float64.Marshal(v.Nutrition.Sodium, bs[n:])
		n += raw.Float64.Marshal(v.Nutrition.Sugar, bs[n:])
	}

	n += ord.String.Marshal(v.ImageURL, bs[n:])
	n += varint.Int.Marshal(int(v.Source), bs[n:])
	n += timeSer.Marshal(v.LastModified, bs[n:])

	n += vectorSer.Marshal(v.IngredientsVector, bs[n:])
	n += vectorSer.Marshal(v.NameVector, bs[n:])
	n += vectorSer.Marshal(v.AllergenVector, bs[n:])

	n += timeSer.Marshal(v.InsertedAt, bs[n:])
	n += timeSer.Marshal(v.LastUpdated, bs[n:])
	return n
}

func (s stagedProductMUS) Unmarshal(bs []byte) (v StagedProduct, n int, err error) {
	var n1 int

	id, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return v, n, err
	}
	v.Id = ID(id)

	for _, dst := range []*string{&v.Code, &v.ProductName, &v.IngredientsText} {
		*dst, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return v, n, err
		}
	}

	for _, dst := range []*[]string{
		&v.Tags.Brands, &v.Tags.Categories, &v.Tags.Ingredients,
		&v.Tags.IngredientsAnalysis, &v.Tags.Allergens, &v.Tags.AllergensHierarchy,
		&v.Tags.Traces, &v.Tags.Labels,
	} {
		*dst, n1, err = stringsSer.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return v, n, err
		}
	}

	for _, dst := range []*bool{
		&v.Dietary.Vegan, &v.Dietary.Vegetarian, &v.Dietary.GlutenFree,
		&v.Dietary.Kosher, &v.Dietary.Halal, &v.Dietary.Organic,
	} {
		*dst, n1, err = ord.Bool.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return v, n, err
		}
	}

	for _, dst := range []*float64{
		&v.Confidence.Vegan, &v.Confidence.Vegetarian, &v.Confidence.GlutenFree,
		&v.Confidence.Kosher, &v.Confidence.Halal, &v.Confidence.Organic,
		&v.DataQualityScore, &v.PopularityScore, &v.CompletenessScore,
	} {
		*dst, n1, err = raw.Float64.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return v, n, err
		}
	}

	hasNutrition, n1, err := ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	if hasNutrition {
		v.Nutrition = &NutritionalInfo{}
		for _, dst := range []*float64{&v.Nutrition.Calories, &v.Nutrition.Sodium, &v.Nutrition.Sugar} {
			*dst, n1, err = raw.Float64.Unmarshal(bs[n:])
			n += n1
			if err != nil {
				return v, n, err
			}
		}
	}

	v.ImageURL, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}

	source, n1, err := varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.Source = Source(source)

	v.LastModified, n1, err = timeSer.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}

	for _, dst := range []*[]float32{&v.IngredientsVector, &v.NameVector, &v.AllergenVector} {
		*dst, n1, err = vectorSer.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return v, n, err
		}
	}

	v.InsertedAt, n1, err = timeSer.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}

	v.LastUpdated, n1, err = timeSer.Unmarshal(bs[n:])
	n += n1
	return v, n, err
}

func (s stagedProductMUS) Size(v StagedProduct) (size int) {
	size = varint.Uint64.Size(uint64(v.Id))
	size += ord.String.Size(v.Code)
	size += ord.String.Size(v.ProductName)
	size += ord.String.Size(v.IngredientsText)

	for _, tags := range [][]string{
		v.Tags.Brands, v.Tags.Categories, v.Tags.Ingredients,
		v.Tags.IngredientsAnalysis, v.Tags.Allergens, v.Tags.AllergensHierarchy,
		v.Tags.Traces, v.Tags.Labels,
	} {
		size += stringsSer.Size(tags)
	}

	size += 6 * ord.Bool.Size(false)
	size += 9 * raw.Float64.Size(0)

	size += ord.Bool.Size(v.Nutrition != nil)
	if v.Nutrition != nil {
		size += 3 * raw.Float64.Size(0)
	}

	size += ord.String.Size(v.ImageURL)
	size += varint.Int.Size(int(v.Source))
	size += timeSer.Size(v.LastModified)

	size += vectorSer.Size(v.IngredientsVector)
	size += vectorSer.Size(v.NameVector)
	size += vectorSer.Size(v.AllergenVector)

	size += timeSer.Size(v.InsertedAt)
	size += timeSer.Size(v.LastUpdated)
	return size
}

// CheckpointMUS serializes bulk load checkpoints.
var CheckpointMUS = checkpointMUS{}

type checkpointMUS struct{}

func (s checkpointMUS) Marshal(v Checkpoint, bs []byte) (n int) {
	n = ord.String.Marshal(v.RunID, bs)
	n += varint.Int.Marshal(v.BatchesCompleted, bs[n:])
	n += varint.Int.Marshal(v.ProductsLoaded, bs[n:])
	n += timeSer.Marshal(v.UpdatedAt, bs[n:])
	return n
}

func (s checkpointMUS) Unmarshal(bs []byte) (v Checkpoint, n int, err error) {
	var n1 int

	v.RunID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return v, n, err
	}

	v.BatchesCompleted, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}

	v.ProductsLoaded, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}

	v.UpdatedAt, n1, err = timeSer.Unmarshal(bs[n:])
	n += n1
	return v, n, err
}

func (s checkpointMUS) Size(v Checkpoint) (size int) {
	size = ord.String.Size(v.RunID)
	size += varint.Int.Size(v.BatchesCompleted)
	size += varint.Int.Size(v.ProductsLoaded)
	size += timeSer.Size(v.UpdatedAt)
	return size
}
