package acserver

type CarID uint8

type CarInfo struct {
	Driver Driver `json:"driver"`

	CarID       CarID  `json:"car_id" yaml:"car_id"`
	Model       string `json:"model" yaml:"model"`
	Skin        string `json:"skin" yaml:"skin"`
	IsConnected bool   `json:"is_connected" yaml:"is_connected"`
}

type Driver struct {
	Name string `json:"name" yaml:"name"`
	Team string `json:"team" yaml:"team"`
	GUID string `json:"guid" yaml:"guid"`
}
