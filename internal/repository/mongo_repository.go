package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"bizledger/internal/domain"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	clientsCollection  = "clients"
	productsCollection = "products"
	salesCollection    = "sales"
)

// MongoRepository stores each client, product and sale as one document.
// Sale items are embedded in the sale document. Transactions need a replica
// set deployment.
type MongoRepository struct {
	client *mongo.Client
	db     *mongo.Database
	sess   mongo.SessionContext
}

func NewMongo(client *mongo.Client, database string) *MongoRepository {
	return &MongoRepository{client: client, db: client.Database(database)}
}

type clientDoc struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	ContactInfo string    `bson:"contact_info"`
	Address     string    `bson:"address"`
	Notes       string    `bson:"notes"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

type productDoc struct {
	ID         string                   `bson:"_id"`
	Name       string                   `bson:"name"`
	Type       string                   `bson:"type"`
	CostPrice  primitive.Decimal128     `bson:"cost_price"`
	SalePrice  primitive.Decimal128     `bson:"sale_price"`
	Quantity   int                      `bson:"quantity"`
	Attributes domain.ProductAttributes `bson:"attributes"`
	CreatedAt  time.Time                `bson:"created_at"`
	UpdatedAt  time.Time                `bson:"updated_at"`
}

type saleItemDoc struct {
	ProductID       string               `bson:"product_id"`
	ProductName     string               `bson:"product_name"`
	ProductType     string               `bson:"product_type"`
	Quantity        int                  `bson:"quantity"`
	SalePriceAtTime primitive.Decimal128 `bson:"sale_price_at_time"`
	CostPriceAtTime primitive.Decimal128 `bson:"cost_price_at_time"`
}

type saleDoc struct {
	ID            string               `bson:"_id"`
	ClientID      string               `bson:"client_id"`
	Items         []saleItemDoc        `bson:"items"`
	TotalAmount   primitive.Decimal128 `bson:"total_amount"`
	TotalProfit   primitive.Decimal128 `bson:"total_profit"`
	CargoSlipInfo string               `bson:"cargo_slip_info"`
	TrackingNo    string               `bson:"tracking_no"`
	Date          time.Time            `bson:"date"`
	CreatedAt     time.Time            `bson:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at"`
}

type moneyTotalsDoc struct {
	Key     string               `bson:"_id"`
	Revenue primitive.Decimal128 `bson:"revenue"`
	Profit  primitive.Decimal128 `bson:"profit"`
}

// opCtx binds every call made through a transaction-scoped repository to the
// session, whatever context the caller passed in.
func (r *MongoRepository) opCtx(ctx context.Context) context.Context {
	if r.sess != nil {
		return r.sess
	}
	return ctx
}

func (r *MongoRepository) col(name string) *mongo.Collection {
	return r.db.Collection(name)
}

func mongoNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (r *MongoRepository) ListClients(ctx context.Context) ([]domain.Client, error) {
	ctx = r.opCtx(ctx)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.col(clientsCollection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	var docs []clientDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode clients: %w", err)
	}
	clients := make([]domain.Client, 0, len(docs))
	for _, doc := range docs {
		clients = append(clients, doc.toDomain())
	}
	return clients, nil
}

func (r *MongoRepository) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	var doc clientDoc
	if err := r.findByID(r.opCtx(ctx), clientsCollection, id, &doc); err != nil {
		return nil, wrapMongo(err, "get client %s", id)
	}
	client := doc.toDomain()
	return &client, nil
}

func (r *MongoRepository) CreateClient(ctx context.Context, input ClientInput) (domain.Client, error) {
	now := mongoNow()
	doc := clientDoc{
		ID:          newID(),
		Name:        input.Name,
		ContactInfo: input.ContactInfo,
		Address:     input.Address,
		Notes:       input.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.col(clientsCollection).InsertOne(r.opCtx(ctx), doc); err != nil {
		return domain.Client{}, fmt.Errorf("create client: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MongoRepository) UpdateClient(ctx context.Context, id string, input ClientInput) (*domain.Client, error) {
	set := bson.M{
		"name":         input.Name,
		"contact_info": input.ContactInfo,
		"address":      input.Address,
		"notes":        input.Notes,
		"updated_at":   mongoNow(),
	}
	var doc clientDoc
	if err := r.updateByID(r.opCtx(ctx), clientsCollection, id, bson.M{"$set": set}, &doc); err != nil {
		return nil, wrapMongo(err, "update client %s", id)
	}
	client := doc.toDomain()
	return &client, nil
}

func (r *MongoRepository) DeleteClient(ctx context.Context, id string) error {
	return r.deleteByID(r.opCtx(ctx), clientsCollection, id)
}

func (r *MongoRepository) ListProducts(ctx context.Context, filter ProductListFilter) ([]domain.Product, error) {
	ctx = r.opCtx(ctx)
	query := bson.M{}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	}
	if filter.Type != "" {
		query["type"] = string(filter.Type)
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(normalizeOffset(filter.Offset))).
		SetLimit(int64(normalizeLimit(filter.Limit)))

	cur, err := r.col(productsCollection).Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		p, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func (r *MongoRepository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var doc productDoc
	if err := r.findByID(r.opCtx(ctx), productsCollection, id, &doc); err != nil {
		return nil, wrapMongo(err, "get product %s", id)
	}
	product, err := doc.toDomain()
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *MongoRepository) CreateProduct(ctx context.Context, input ProductInput) (domain.Product, error) {
	cost, err := toDecimal128(input.CostPrice)
	if err != nil {
		return domain.Product{}, err
	}
	sale, err := toDecimal128(input.SalePrice)
	if err != nil {
		return domain.Product{}, err
	}
	now := mongoNow()
	doc := productDoc{
		ID:         newID(),
		Name:       input.Name,
		Type:       string(input.Type),
		CostPrice:  cost,
		SalePrice:  sale,
		Quantity:   input.Quantity,
		Attributes: input.Attributes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := r.col(productsCollection).InsertOne(r.opCtx(ctx), doc); err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	return doc.toDomain()
}

func (r *MongoRepository) UpdateProduct(ctx context.Context, id string, input ProductInput) (*domain.Product, error) {
	cost, err := toDecimal128(input.CostPrice)
	if err != nil {
		return nil, err
	}
	sale, err := toDecimal128(input.SalePrice)
	if err != nil {
		return nil, err
	}
	set := bson.M{
		"name":       input.Name,
		"type":       string(input.Type),
		"cost_price": cost,
		"sale_price": sale,
		"quantity":   input.Quantity,
		"attributes": input.Attributes,
		"updated_at": mongoNow(),
	}
	var doc productDoc
	if err := r.updateByID(r.opCtx(ctx), productsCollection, id, bson.M{"$set": set}, &doc); err != nil {
		return nil, wrapMongo(err, "update product %s", id)
	}
	product, err := doc.toDomain()
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *MongoRepository) DeleteProduct(ctx context.Context, id string) error {
	return r.deleteByID(r.opCtx(ctx), productsCollection, id)
}

func (r *MongoRepository) AdjustStock(ctx context.Context, id string, delta int) (*domain.Product, error) {
	update := bson.M{
		"$inc": bson.M{"quantity": delta},
		"$set": bson.M{"updated_at": mongoNow()},
	}
	var doc productDoc
	if err := r.updateByID(r.opCtx(ctx), productsCollection, id, update, &doc); err != nil {
		return nil, wrapMongo(err, "adjust stock for product %s", id)
	}
	product, err := doc.toDomain()
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *MongoRepository) ListSales(ctx context.Context, filter SaleListFilter) ([]domain.Sale, error) {
	ctx = r.opCtx(ctx)
	query := bson.M{}
	if filter.ClientID != "" {
		query["client_id"] = filter.ClientID
	}
	if rng := dateRange(filter.From, filter.To); len(rng) > 0 {
		query["date"] = rng
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(normalizeOffset(filter.Offset))).
		SetLimit(int64(normalizeLimit(filter.Limit)))

	cur, err := r.col(salesCollection).Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	var docs []saleDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode sales: %w", err)
	}
	sales := make([]domain.Sale, 0, len(docs))
	for _, doc := range docs {
		sale, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, nil
}

func (r *MongoRepository) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	var doc saleDoc
	if err := r.findByID(r.opCtx(ctx), salesCollection, id, &doc); err != nil {
		return nil, wrapMongo(err, "get sale %s", id)
	}
	sale, err := doc.toDomain()
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *MongoRepository) InsertSale(ctx context.Context, sale domain.Sale) (domain.Sale, error) {
	if sale.ID == "" {
		sale.ID = newID()
	}
	now := mongoNow()
	if sale.Date.IsZero() {
		sale.Date = now
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = now
	}
	sale.Date = sale.Date.UTC().Truncate(time.Millisecond)
	sale.CreatedAt = sale.CreatedAt.UTC().Truncate(time.Millisecond)
	sale.UpdatedAt = sale.CreatedAt

	doc, err := newSaleDoc(sale)
	if err != nil {
		return domain.Sale{}, err
	}
	if _, err := r.col(salesCollection).InsertOne(r.opCtx(ctx), doc); err != nil {
		return domain.Sale{}, fmt.Errorf("insert sale: %w", err)
	}
	return doc.toDomain()
}

func (r *MongoRepository) DailyTotals(ctx context.Context, from, to time.Time, loc *time.Location) ([]domain.DayTotal, error) {
	ctx = r.opCtx(ctx)
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"date": bson.M{"$gte": from, "$lt": to}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{
				"format":   "%Y-%m-%d",
				"date":     "$date",
				"timezone": mongoTimezone(loc, from),
			}},
			"revenue": bson.M{"$sum": "$total_amount"},
			"profit":  bson.M{"$sum": "$total_profit"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	cur, err := r.col(salesCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("daily totals aggregate: %w", err)
	}
	var docs []moneyTotalsDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode daily totals: %w", err)
	}

	totals := make([]domain.DayTotal, 0, len(docs))
	for _, doc := range docs {
		revenue, profit, err := doc.amounts()
		if err != nil {
			return nil, err
		}
		totals = append(totals, domain.DayTotal{Day: doc.Key, Revenue: revenue, Profit: profit})
	}
	return totals, nil
}

func (r *MongoRepository) Stats(ctx context.Context) (domain.DashboardStats, error) {
	ctx = r.opCtx(ctx)
	var stats domain.DashboardStats
	counts := []struct {
		collection string
		dst        *int
	}{
		{clientsCollection, &stats.TotalClients},
		{productsCollection, &stats.TotalProducts},
		{salesCollection, &stats.TotalSalesCount},
	}
	for _, c := range counts {
		n, err := r.col(c.collection).CountDocuments(ctx, bson.D{})
		if err != nil {
			return domain.DashboardStats{}, fmt.Errorf("count %s: %w", c.collection, err)
		}
		*c.dst = int(n)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"revenue": bson.M{"$sum": "$total_amount"},
			"profit":  bson.M{"$sum": "$total_profit"},
		}}},
	}
	cur, err := r.col(salesCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return domain.DashboardStats{}, fmt.Errorf("sales totals aggregate: %w", err)
	}
	var docs []moneyTotalsDoc
	if err := cur.All(ctx, &docs); err != nil {
		return domain.DashboardStats{}, fmt.Errorf("decode sales totals: %w", err)
	}
	stats.TotalRevenue, stats.TotalProfit = decimal.Zero, decimal.Zero
	if len(docs) > 0 {
		stats.TotalRevenue, stats.TotalProfit, err = docs[0].amounts()
		if err != nil {
			return domain.DashboardStats{}, err
		}
	}
	return stats, nil
}

func (r *MongoRepository) Purge(ctx context.Context) error {
	ctx = r.opCtx(ctx)
	for _, name := range []string{salesCollection, productsCollection, clientsCollection} {
		if _, err := r.col(name).DeleteMany(ctx, bson.D{}); err != nil {
			return fmt.Errorf("purge %s: %w", name, err)
		}
	}
	return nil
}

// WithinTx runs fn inside a multi-document transaction. The driver may call
// fn more than once on transient errors.
func (r *MongoRepository) WithinTx(ctx context.Context, fn func(Store) error) error {
	if r.sess != nil {
		return fn(r)
	}
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(&MongoRepository{client: r.client, db: r.db, sess: sc})
	})
	return err
}

func (r *MongoRepository) Close(ctx context.Context) error {
	if r.sess != nil {
		return nil
	}
	return r.client.Disconnect(ctx)
}

func (r *MongoRepository) findByID(ctx context.Context, collection, id string, dst any) error {
	if !validID(id) {
		return ErrNotFound
	}
	return r.col(collection).FindOne(ctx, bson.M{"_id": id}).Decode(dst)
}

func (r *MongoRepository) updateByID(ctx context.Context, collection, id string, update bson.M, dst any) error {
	if !validID(id) {
		return ErrNotFound
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	return r.col(collection).FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(dst)
}

func (r *MongoRepository) deleteByID(ctx context.Context, collection, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	res, err := r.col(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete from %s %s: %w", collection, id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func wrapMongo(err error, format string, args ...any) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func dateRange(from, to *time.Time) bson.M {
	rng := bson.M{}
	if from != nil {
		rng["$gte"] = *from
	}
	if to != nil {
		rng["$lt"] = *to
	}
	return rng
}

// mongoTimezone returns a zone the aggregation pipeline understands. Named
// IANA zones pass through; anything else is pinned to its offset at ref.
func mongoTimezone(loc *time.Location, ref time.Time) string {
	name := loc.String()
	if name == "UTC" || strings.Contains(name, "/") {
		return name
	}
	_, offset := ref.In(loc).Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("%s%02d:%02d", sign, offset/3600, (offset%3600)/60)
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	out, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode decimal %s: %w", d.String(), err)
	}
	return out, nil
}

func fromDecimal128(d primitive.Decimal128) (decimal.Decimal, error) {
	out, err := decimal.NewFromString(d.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode decimal %s: %w", d.String(), err)
	}
	return out, nil
}

func (d clientDoc) toDomain() domain.Client {
	return domain.Client{
		ID:          d.ID,
		Name:        d.Name,
		ContactInfo: d.ContactInfo,
		Address:     d.Address,
		Notes:       d.Notes,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (d productDoc) toDomain() (domain.Product, error) {
	cost, err := fromDecimal128(d.CostPrice)
	if err != nil {
		return domain.Product{}, err
	}
	sale, err := fromDecimal128(d.SalePrice)
	if err != nil {
		return domain.Product{}, err
	}
	return domain.Product{
		ID:         d.ID,
		Name:       d.Name,
		Type:       domain.ProductType(d.Type),
		CostPrice:  cost,
		SalePrice:  sale,
		Quantity:   d.Quantity,
		Attributes: d.Attributes,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}, nil
}

func newSaleDoc(sale domain.Sale) (saleDoc, error) {
	amount, err := toDecimal128(sale.TotalAmount)
	if err != nil {
		return saleDoc{}, err
	}
	profit, err := toDecimal128(sale.TotalProfit)
	if err != nil {
		return saleDoc{}, err
	}
	items := make([]saleItemDoc, 0, len(sale.Items))
	for _, item := range sale.Items {
		salePrice, err := toDecimal128(item.SalePriceAtTime)
		if err != nil {
			return saleDoc{}, err
		}
		costPrice, err := toDecimal128(item.CostPriceAtTime)
		if err != nil {
			return saleDoc{}, err
		}
		items = append(items, saleItemDoc{
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			ProductType:     string(item.ProductType),
			Quantity:        item.Quantity,
			SalePriceAtTime: salePrice,
			CostPriceAtTime: costPrice,
		})
	}
	return saleDoc{
		ID:            sale.ID,
		ClientID:      sale.ClientID,
		Items:         items,
		TotalAmount:   amount,
		TotalProfit:   profit,
		CargoSlipInfo: sale.CargoSlipInfo,
		TrackingNo:    sale.TrackingNo,
		Date:          sale.Date,
		CreatedAt:     sale.CreatedAt,
		UpdatedAt:     sale.UpdatedAt,
	}, nil
}

func (d saleDoc) toDomain() (domain.Sale, error) {
	amount, err := fromDecimal128(d.TotalAmount)
	if err != nil {
		return domain.Sale{}, err
	}
	profit, err := fromDecimal128(d.TotalProfit)
	if err != nil {
		return domain.Sale{}, err
	}
	items := make([]domain.SaleItem, 0, len(d.Items))
	for _, item := range d.Items {
		salePrice, err := fromDecimal128(item.SalePriceAtTime)
		if err != nil {
			return domain.Sale{}, err
		}
		costPrice, err := fromDecimal128(item.CostPriceAtTime)
		if err != nil {
			return domain.Sale{}, err
		}
		items = append(items, domain.SaleItem{
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			ProductType:     domain.ProductType(item.ProductType),
			Quantity:        item.Quantity,
			SalePriceAtTime: salePrice,
			CostPriceAtTime: costPrice,
		})
	}
	return domain.Sale{
		ID:            d.ID,
		ClientID:      d.ClientID,
		Items:         items,
		TotalAmount:   amount,
		TotalProfit:   profit,
		CargoSlipInfo: d.CargoSlipInfo,
		TrackingNo:    d.TrackingNo,
		Date:          d.Date,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}

func (d moneyTotalsDoc) amounts() (decimal.Decimal, decimal.Decimal, error) {
	revenue, err := fromDecimal128(d.Revenue)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	profit, err := fromDecimal128(d.Profit)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return revenue, profit, nil
}
