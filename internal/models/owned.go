package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoomStatus состояние номера.
type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomOccupied    RoomStatus = "occupied"
	RoomCleaning    RoomStatus = "cleaning"
	RoomMaintenance RoomStatus = "maintenance"
)

// Room номер отеля.
type Room struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	HotelID   primitive.ObjectID `json:"hotelId" bson:"hotelId"`
	Number    string             `json:"number" bson:"number" validate:"required,max=16"`
	Type      string             `json:"type" bson:"type" validate:"required,max=32"`
	Floor     int                `json:"floor" bson:"floor" validate:"gte=0,lte=300"`
	Capacity  int                `json:"capacity" bson:"capacity" validate:"required,gte=1,lte=20"`
	Price     float64            `json:"price" bson:"price" validate:"gte=0"`
	Status    RoomStatus         `json:"status" bson:"status"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// OwnerHotel возвращает отель-владелец записи.
func (r *Room) OwnerHotel() primitive.ObjectID { return r.HotelID }

// SetOwnerHotel проставляет отель-владелец.
func (r *Room) SetOwnerHotel(id primitive.ObjectID) { r.HotelID = id }

// Guest гость отеля.
type Guest struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	HotelID   primitive.ObjectID `json:"hotelId" bson:"hotelId"`
	FirstName string             `json:"firstName" bson:"firstName" validate:"required,max=80"`
	LastName  string             `json:"lastName" bson:"lastName" validate:"required,max=80"`
	Email     string             `json:"email" bson:"email" validate:"omitempty,email"`
	Phone     string             `json:"phone" bson:"phone" validate:"omitempty,max=32"`
	Document  string             `json:"document" bson:"document" validate:"omitempty,max=64"`
	Notes     string             `json:"notes" bson:"notes" validate:"omitempty,max=1000"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// OwnerHotel возвращает отель-владелец записи.
func (g *Guest) OwnerHotel() primitive.ObjectID { return g.HotelID }
func (g *Guest) SetOwnerHotel(id primitive.ObjectID) { g.HotelID = id }

// BookingStatus состояние бронирования.
type BookingStatus string

const (
	BookingConfirmed  BookingStatus = "confirmed"
	BookingCheckedIn  BookingStatus = "checked_in"
	BookingCheckedOut BookingStatus = "checked_out"
	BookingCancelled  BookingStatus = "cancelled"
)

// Booking бронирование номера.
type Booking struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	HotelID     primitive.ObjectID `json:"hotelId" bson:"hotelId"`
	RoomID      primitive.ObjectID `json:"roomId" bson:"roomId"`
	GuestID     primitive.ObjectID `json:"guestId" bson:"guestId"`
	CheckIn     time.Time          `json:"checkIn" bson:"checkIn"`
	CheckOut    time.Time          `json:"checkOut" bson:"checkOut"`
	Status      BookingStatus      `json:"status" bson:"status"`
	TotalAmount float64            `json:"totalAmount" bson:"totalAmount"`
	CreatedBy   primitive.ObjectID `json:"createdBy" bson:"createdBy"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

func (b *Booking) OwnerHotel() primitive.ObjectID { return b.HotelID }
func (b *Booking) SetOwnerHotel(id primitive.ObjectID) { b.HotelID = id }

// Nights количество ночей бронирования.
func (b *Booking) Nights() int {
	n := int(b.CheckOut.Sub(b.CheckIn).Hours() / 24)
	if n < 1 {
		return 1
	}
	return n
}

// CreateBookingRequest данные нового бронирования.
type CreateBookingRequest struct {
	RoomID   string    `json:"room_id" validate:"required,len=24,hexadecimal"`
	GuestID  string    `json:"guest_id" validate:"required,len=24,hexadecimal"`
	CheckIn  time.Time `json:"check_in" validate:"required"`
	CheckOut time.Time `json:"check_out" validate:"required,gtfield=CheckIn"`
}

// Dashboard сводка по отелю.
type Dashboard struct {
	HotelID          primitive.ObjectID `json:"hotelId"`
	RoomsTotal       int64              `json:"roomsTotal"`
	RoomsOccupied    int64              `json:"roomsOccupied"`
	GuestsTotal      int64              `json:"guestsTotal"`
	ActiveBookings   int64              `json:"activeBookings"`
	ArrivalsToday    int64              `json:"arrivalsToday"`
	DeparturesToday  int64              `json:"departuresToday"`
	OccupancyPercent float64            `json:"occupancyPercent"`
	Revenue          float64            `json:"revenue"`
}
