package domain

type Room struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Beverage struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Price  int     `json:"price"`
	Pics   *string `json:"pics"`
	Active bool    `json:"active"`
}

type BeverageSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price int    `json:"price"`
}
